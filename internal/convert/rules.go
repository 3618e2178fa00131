package convert

import (
	"dynsite/internal/action"
	"dynsite/internal/guard"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// bindChar handles strings only; other values are left to the fallback.
// Both outcomes run the same action, which fails for lengths other than one,
// so the rejection is cached under its own guard.
func (b *Binder) bindChar(v object.Value) *Rule {
	vt := v.TypeID()
	s, ok := v.(object.Str)
	if !ok || !b.pool.env.Types.IsStringLike(vt) {
		return nil
	}
	lenTest := guard.RuneLenNe(1)
	if s.Len() == 1 {
		lenTest = guard.RuneLenEq(1)
	}
	return b.pool.Rule(guard.New(guard.TypeIs(vt), lenTest), action.Action{Op: action.OpFirstRune}, b.shape)
}

func (b *Binder) bindArray(v object.Value) *Rule {
	in := b.pool.env.Types
	if _, ok := v.(object.Tuple); !ok {
		return nil
	}
	t := in.MustLookup(b.cfg.Target)
	if t.Rank != 1 {
		return nil
	}
	a := action.Action{Op: action.OpTupleToArray, Type: b.cfg.Target, Elem: b.pool.converter(t.Elem)}
	return b.pool.Rule(guard.New(guard.TypeIs(types.TupleType)), a, b.shape)
}

// bindGeneric adapts values to List<T>, Map<K, V> and Seq<T> without
// copying; elements convert on access.
func (b *Binder) bindGeneric(v object.Value) *Rule {
	p := b.pool
	in := p.env.Types
	vt, target := v.TypeID(), b.cfg.Target
	if in.Assignable(vt, target) {
		return nil
	}
	t := in.MustLookup(target)
	g := guard.New(guard.TypeIs(vt))
	switch t.Kind {
	case types.KindListOf:
		if _, ok := v.(object.Str); ok && t.Elem == types.Uint8Type && in.IsStringLike(vt) {
			return p.Rule(g, action.Action{Op: action.OpStringBytes}, b.shape)
		}
		if _, ok := v.(object.Indexable); ok {
			return p.Rule(g, action.Action{Op: action.OpListView, Type: target, Elem: p.converter(t.Elem)}, b.shape)
		}
	case types.KindMapOf:
		if _, ok := v.(object.Mapping); ok {
			return p.Rule(g, action.Action{
				Op:   action.OpMapView,
				Type: target,
				Key:  p.converter(t.Key),
				Elem: p.converter(t.Elem),
			}, b.shape)
		}
	case types.KindSeqOf:
		if _, ok := v.(object.Iterable); ok {
			return p.Rule(g, action.Action{Op: action.OpSeqView, Type: target, Elem: p.converter(t.Elem)}, b.shape)
		}
	}
	return nil
}

func (b *Binder) bindSeq(v object.Value) *Rule {
	p := b.pool
	in := p.env.Types
	vt := v.TypeID()
	if _, ok := v.(object.Str); ok && in.IsStringLike(vt) {
		return p.Rule(guard.New(guard.TypeIs(vt)), action.Action{Op: action.OpStringUnits}, b.shape)
	}
	if _, ok := v.(object.Iterable); ok || in.IsEnumerable(vt) {
		return nil
	}
	if p.hasIndexHooks(vt) {
		return p.Rule(guard.New(guard.TypeIs(vt)), action.Action{Op: action.OpIndexSeq}, b.shape)
	}
	return nil
}

func (b *Binder) bindIter(v object.Value) *Rule {
	p := b.pool
	in := p.env.Types
	vt := v.TypeID()
	if _, ok := v.(object.Iterator); ok || in.KindOf(vt) == types.KindIter {
		return nil
	}
	if _, ok := v.(object.Iterable); ok || in.IsEnumerable(vt) {
		return nil
	}
	if p.hasIndexHooks(vt) {
		return p.Rule(guard.New(guard.TypeIs(vt)), action.Action{Op: action.OpIndexIter}, b.shape)
	}
	return nil
}

// bindEnum converts the zero of the enum's base type to the default member.
// Nonzero values of the base type fail even when a member has that value.
func (b *Binder) bindEnum(v object.Value) *Rule {
	p := b.pool
	in := p.env.Types
	info, ok := in.EnumInfo(b.cfg.Target)
	vt := v.TypeID()
	if !ok || vt != info.BaseType {
		return nil
	}
	zero, ok := object.IsZero(v)
	if !ok {
		return nil
	}
	if zero {
		def := object.EnumValue{T: b.cfg.Target}
		return p.Rule(guard.New(guard.TypeIs(vt), guard.Zero()), action.Const(def), b.shape)
	}
	return p.Rule(guard.New(guard.TypeIs(vt), guard.NonZero()),
		action.Fail(action.CodeInvalidEnum, "invalid enum conversion: only zero %s converts to %s", types.Label(in, vt), info.Name),
		b.shape)
}

func (p *Pool) hasIndexHooks(t types.TypeID) bool {
	h, ok := p.env.Hooks.Lookup(t)
	return ok && h.Len != nil && h.Index != nil
}
