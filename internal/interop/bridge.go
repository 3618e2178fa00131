// Package interop exposes plain Go values to the hosted runtime as foreign
// objects and converts them on demand through reflection.
package interop

import (
	"fmt"
	"reflect"
	"sync"

	"dynsite/internal/action"
	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/guard"
	"dynsite/internal/numeric"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// Bridge maps Go types to foreign hosted types, one TypeID per Go type.
type Bridge struct {
	in *types.Interner

	mu      sync.RWMutex
	byGo    map[reflect.Type]types.TypeID
	goTypes map[types.TypeID]reflect.Type
}

// NewBridge creates a bridge that registers foreign types in in.
func NewBridge(in *types.Interner) *Bridge {
	return &Bridge{
		in:      in,
		byGo:    make(map[reflect.Type]types.TypeID),
		goTypes: make(map[types.TypeID]reflect.Type),
	}
}

// TypeFor returns the foreign type of rt, registering it on first use.
func (b *Bridge) TypeFor(rt reflect.Type) types.TypeID {
	b.mu.RLock()
	id, ok := b.byGo[rt]
	b.mu.RUnlock()
	if ok {
		return id
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.byGo[rt]; ok {
		return id
	}
	id = b.in.RegisterForeign("go:" + rt.String())
	b.byGo[rt] = id
	b.goTypes[id] = rt
	return id
}

// Wrap boxes x as a foreign value without converting it.
func (b *Bridge) Wrap(x any) object.Foreign {
	return object.Foreign{T: b.TypeFor(reflect.TypeOf(x)), V: x}
}

func (b *Bridge) goType(id types.TypeID) (reflect.Type, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rt, ok := b.goTypes[id]
	return rt, ok
}

// naturalType is the hosted type a Go type marshals to, or NoTypeID when
// values of rt stay foreign.
func naturalType(rt reflect.Type) types.TypeID {
	switch rt.Kind() {
	case reflect.Bool:
		return types.BoolType
	case reflect.Int, reflect.Int64:
		return types.Int64Type
	case reflect.Int8:
		return types.Int8Type
	case reflect.Int16:
		return types.Int16Type
	case reflect.Int32:
		return types.Int32Type
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return types.Uint64Type
	case reflect.Uint8:
		return types.Uint8Type
	case reflect.Uint16:
		return types.Uint16Type
	case reflect.Uint32:
		return types.Uint32Type
	case reflect.Float32:
		return types.Float32Type
	case reflect.Float64:
		return types.Float64Type
	case reflect.String:
		return types.StringType
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return types.BytesType
		}
		return types.ListType
	case reflect.Array:
		return types.ListType
	case reflect.Map:
		return types.DictType
	}
	return types.NoTypeID
}

// ToValue marshals a Go value into the hosted object model. Values with no
// hosted counterpart (structs, pointers, funcs) become foreign objects.
func (b *Bridge) ToValue(x any) (object.Value, error) {
	if x == nil {
		return object.None, nil
	}
	if v, ok := x.(object.Value); ok {
		return v, nil
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return object.None, nil
	}
	nt := naturalType(rv.Type())
	switch rv.Kind() {
	case reflect.Bool:
		return object.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return object.Int{T: nt, V: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return object.Uint{T: nt, V: rv.Uint()}, nil
	case reflect.Float32, reflect.Float64:
		return object.Float{T: nt, V: rv.Float()}, nil
	case reflect.String:
		return object.S(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if nt == types.BytesType {
			return object.Bytes(rv.Bytes()), nil
		}
		items := make([]object.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := b.ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("interop: element %d: %w", i, err)
			}
			items[i] = item
		}
		return object.NewList(items...), nil
	case reflect.Map:
		d := object.NewDict()
		iter := rv.MapRange()
		for iter.Next() {
			k, err := b.ToValue(iter.Key().Interface())
			if err != nil {
				return nil, fmt.Errorf("interop: map key: %w", err)
			}
			val, err := b.ToValue(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("interop: map value: %w", err)
			}
			d.Set(k, val)
		}
		return d, nil
	}
	return b.Wrap(x), nil
}

// TryConvert implements capability.Interop. It accepts foreign values whose
// Go type marshals to a hosted type that reaches the target: directly, by
// numeric conversion, or by truthiness for bool targets.
func (b *Bridge) TryConvert(req capability.Request, v object.Value) *capability.Rule {
	f, ok := v.(object.Foreign)
	if !ok {
		return nil
	}
	rt, ok := b.goType(f.T)
	if !ok {
		return nil
	}
	nt := naturalType(rt)
	in, to := b.in, req.Target
	if nt == types.NoTypeID || to == types.ObjectType {
		return nil
	}

	var (
		finish func(object.Value) (object.Value, error)
		label  string
	)
	switch {
	case in.Assignable(nt, to):
		label = "go-marshal"
	case in.IsNumeric(nt) && in.IsNumeric(to) && (req.Kind.Explicit() || numeric.Widens(in, nt, to)):
		label = "go-marshal numeric " + types.Label(in, to)
		finish = func(x object.Value) (object.Value, error) { return numeric.Convert(in, x, to) }
	case to == types.BoolType:
		label = "go-marshal truth"
		finish = truth
	default:
		return nil
	}

	g := guard.New(guard.TypeIs(f.T))
	act := action.Func(label, func(arg object.Value) action.Result {
		fv, ok := arg.(object.Foreign)
		if !ok {
			return callsite.Fail[object.Value](action.CodeInvalidCast, "%s is not a foreign value", object.Inspect(arg))
		}
		out, err := b.ToValue(fv.V)
		if err == nil && finish != nil {
			out, err = finish(out)
		}
		if err != nil {
			return callsite.FailWith[object.Value](action.FailureOf(err, action.CodeNoConversion))
		}
		return callsite.Succeed(out)
	})
	return callsite.NewRule(
		g.Compile(nil),
		act.Compile(action.Env{Types: in}),
		to,
		g.Fingerprint(),
		g.Describe(in)+" -> "+act.Describe(in),
	)
}

func truth(x object.Value) (object.Value, error) {
	if zero, ok := object.IsZero(x); ok {
		return object.Bool(!zero), nil
	}
	if s, ok := x.(object.Sized); ok {
		return object.Bool(s.Len() != 0), nil
	}
	return object.Bool(!object.IsNone(x)), nil
}
