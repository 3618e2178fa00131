package convert

import (
	"dynsite/internal/action"
	"dynsite/internal/guard"
	"dynsite/internal/numeric"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// PlatformFallback is the generic resolver used when no category applies.
// Its rules guard on the exact runtime type (or on none).
type PlatformFallback struct {
	pool *Pool
}

// ConvertTo always returns a rule whose guard accepts v.
func (f *PlatformFallback) ConvertTo(req Config, v object.Value) *Rule {
	in := f.pool.env.Types
	if v == nil {
		v = object.None
	}
	g := guard.New(guard.TypeIs(v.TypeID()))
	if object.IsNone(v) {
		g = guard.New(guard.IsNone())
	}
	a := f.action(req, v)
	shape := req.Target
	if req.Kind.IsTry() {
		a = action.Try(a)
		if !in.IsReferenceKind(req.Target) {
			shape = types.ObjectType
		}
	}
	return f.pool.Rule(g, a, shape)
}

func (f *PlatformFallback) action(req Config, v object.Value) action.Action {
	in := f.pool.env.Types
	vt, to := v.TypeID(), req.Target
	explicit := req.Kind.Explicit()
	from := func() string { return types.Label(in, vt) }
	target := func() string { return types.Label(in, to) }

	switch {
	case object.IsNone(v):
		if in.IsReferenceKind(to) {
			return action.Const(object.None)
		}
		return action.Fail(action.CodeNoConversion, "cannot convert none to %s", target())
	case in.Assignable(vt, to):
		return action.Identity()
	case in.IsNumeric(vt) && in.IsNumeric(to):
		if explicit || numeric.Widens(in, vt, to) {
			return action.Numeric(to)
		}
		return action.Fail(action.CodeNoConversion, "implicit conversion from %s to %s may lose data", from(), target())
	case explicit && in.IsInteger(to):
		switch in.KindOf(vt) {
		case types.KindBool, types.KindChar, types.KindEnum:
			return action.Numeric(to)
		}
	case explicit && to == types.CharType && in.IsInteger(vt):
		return action.Numeric(to)
	case vt == types.CharType && to == types.StringType:
		return action.Action{Op: action.OpCharToString}
	}
	return action.Fail(action.CodeNoConversion, "cannot convert %s to %s", from(), target())
}
