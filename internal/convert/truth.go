package convert

import (
	"dynsite/internal/action"
	"dynsite/internal/guard"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// Truth classes group types by how their truthiness is decided. Rules for
// the hook and len classes guard on the class, not the exact type, so every
// sized type (and every string-like subtype) shares one rule per site.
const (
	truthPlain   uint8 = iota // no protocol: always true
	truthOpaque               // decided per exact type (self-converting or foreign)
	truthNone                 // the none value
	truthBool                 // already a bool
	truthRef                  // reference cell: no truthiness
	truthNumeric              // numerics, chars and enums: != 0
	truthHook                 // registered truth hook
	truthLen                  // length hook or built-in size
)

// truthClass classifies t. It depends only on t and the registered hooks.
func (p *Pool) truthClass(t types.TypeID) uint8 {
	in := p.env.Types
	kind := in.KindOf(t)
	if kind == types.KindForeign {
		return truthOpaque
	}
	if h, ok := p.env.Hooks.Lookup(t); ok {
		switch {
		case h.Convert != nil:
			return truthOpaque
		case h.Truth != nil:
			return truthHook
		case h.Len != nil:
			return truthLen
		}
	}
	switch kind {
	case types.KindNothing:
		return truthNone
	case types.KindBool:
		return truthBool
	case types.KindRef:
		return truthRef
	case types.KindInt, types.KindUint, types.KindFloat, types.KindChar, types.KindEnum:
		return truthNumeric
	case types.KindString, types.KindBytes, types.KindTuple, types.KindList, types.KindDict,
		types.KindArray, types.KindListOf, types.KindMapOf:
		return truthLen
	case types.KindClass:
		if in.IsStringLike(t) {
			return truthLen
		}
	}
	return truthPlain
}

func (b *Binder) bindBool(v object.Value) *Rule {
	p := b.pool
	vt := v.TypeID()
	class := p.truthClass(vt)
	var (
		g guard.Guard
		a action.Action
	)
	switch class {
	case truthNone:
		g, a = guard.New(guard.IsNone()), action.Const(object.Bool(false))
	case truthBool:
		g, a = guard.New(guard.TypeIs(vt)), action.Identity()
	case truthRef:
		g = guard.New(guard.TypeIs(vt))
		a = action.Fail(action.CodeRefToBool, "cannot convert reference cell %s to bool", types.Label(p.env.Types, vt))
	case truthNumeric:
		g, a = guard.New(guard.TypeIs(vt)), action.Action{Op: action.OpNotZero}
	case truthHook:
		g, a = guard.New(guard.TruthClass(class)), action.Action{Op: action.OpTruthHook}
	case truthLen:
		g, a = guard.New(guard.TruthClass(class)), action.Action{Op: action.OpLenNonZero}
	case truthOpaque:
		g = guard.New(guard.TypeIs(vt))
		h, _ := p.env.Hooks.Lookup(vt)
		switch {
		case h.Truth != nil:
			a = action.Action{Op: action.OpTruthHook}
		case h.Len != nil:
			a = action.Action{Op: action.OpLenNonZero}
		default:
			a = action.Const(object.Bool(true))
		}
	default:
		g, a = guard.New(guard.TypeIs(vt)), action.Const(object.Bool(true))
	}
	return p.Rule(g, a, b.shape)
}
