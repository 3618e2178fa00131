package main

import (
	"errors"
	"fmt"
	"reflect"

	"dynsite/internal/action"
	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/convert"
	"dynsite/internal/guard"
	"dynsite/internal/interop"
	"dynsite/internal/literal"
	"dynsite/internal/numeric"
	"dynsite/internal/object"
	"dynsite/internal/trace"
	"dynsite/internal/types"
)

// demoRuntime is the small hosted runtime the CLI converts values of:
//
//	Color    enum on i64 {Red = 0, Green = 1, Blue = 2}
//	Name     string-like class
//	Bag(n)   length hook
//	Flag(b)  truth hook
//	Vec(..)  length and index hooks
//	Temp(c)  converts itself to floats and strings
//	go(x)    x handed over as a foreign Go value
type demoRuntime struct {
	in     *types.Interner
	hooks  *capability.Registry
	bridge *interop.Bridge
	pool   *convert.Pool
	lit    literal.Env

	color, name, bag, flag, vec, temp types.TypeID
}

func newDemoRuntime(tracer trace.Tracer, cfg convert.PoolConfig) (*demoRuntime, error) {
	in := types.NewInterner()
	rt := &demoRuntime{
		in:     in,
		hooks:  capability.NewRegistry(),
		bridge: interop.NewBridge(in),
		color: in.RegisterEnum("Color", types.Int64Type, []types.EnumVariantInfo{
			{Name: "Red", Value: 0},
			{Name: "Green", Value: 1},
			{Name: "Blue", Value: 2},
		}),
		name: in.RegisterClass("Name", types.StringType),
		bag:  in.RegisterClass("Bag", types.NoTypeID),
		flag: in.RegisterClass("Flag", types.NoTypeID),
		vec:  in.RegisterClass("Vec", types.NoTypeID),
		temp: in.RegisterClass("Temp", types.NoTypeID),
	}
	// hooks go in before the pool hands out sites
	rt.registerHooks()

	pool, err := convert.NewPool(convert.Env{
		Types:   in,
		Hooks:   rt.hooks,
		Interop: rt.bridge,
		Tracer:  tracer,
	}, cfg)
	if err != nil {
		return nil, err
	}
	rt.pool = pool
	rt.lit = literal.Env{
		Types: in,
		Names: map[string]types.TypeID{
			"Color": rt.color, "Name": rt.name, "Bag": rt.bag,
			"Flag": rt.flag, "Vec": rt.vec, "Temp": rt.temp,
		},
		Ctors: map[string]literal.Ctor{
			"Bag":  rt.attrCtor(rt.bag, "n", types.Int64Type),
			"Flag": rt.attrCtor(rt.flag, "on", types.BoolType),
			"Temp": rt.attrCtor(rt.temp, "c", types.Float64Type),
			"Vec": func(args []object.Value) (object.Value, error) {
				return object.NewInstance(rt.vec, map[string]object.Value{"items": object.NewList(args...)}), nil
			},
			"go": rt.goCtor,
		},
	}
	return rt, nil
}

func attr[T object.Value](v object.Value, name string) T {
	var zero T
	inst, ok := v.(*object.Instance)
	if !ok {
		return zero
	}
	x, _ := inst.Attr(name).(T)
	return x
}

func (rt *demoRuntime) registerHooks() {
	rt.hooks.Register(rt.bag, capability.Hooks{
		Len: func(v object.Value) (int, error) { return int(attr[object.Int](v, "n").V), nil },
	})
	rt.hooks.Register(rt.flag, capability.Hooks{
		Truth: func(v object.Value) (bool, error) { return bool(attr[object.Bool](v, "on")), nil },
	})
	items := func(v object.Value) (*object.List, error) {
		l := attr[*object.List](v, "items")
		if l == nil {
			return nil, errors.New("Vec without items")
		}
		return l, nil
	}
	rt.hooks.Register(rt.vec, capability.Hooks{
		Len: func(v object.Value) (int, error) {
			l, err := items(v)
			if err != nil {
				return 0, err
			}
			return l.Len(), nil
		},
		Index: func(v object.Value, i int) (object.Value, error) {
			l, err := items(v)
			if err != nil {
				return nil, err
			}
			return l.At(i)
		},
	})
	rt.hooks.Register(rt.temp, capability.Hooks{Convert: rt.convertTemp})
}

// convertTemp describes Temp's own conversions: explicit casts to floats
// yield degrees, strings render "21.5C". Everything else goes through the
// standard algorithm.
func (rt *demoRuntime) convertTemp(req capability.Request, v object.Value) *capability.Rule {
	in := rt.in
	shape := convert.ReturnShape(in, req)
	g := guard.New(guard.TypeIs(rt.temp))
	switch {
	case in.KindOf(req.Target) == types.KindFloat && req.Kind.Explicit():
		to := req.Target
		return rt.pool.Rule(g, action.Func("degrees", func(x object.Value) action.Result {
			out, err := numeric.Convert(in, attr[object.Float](x, "c"), to)
			if err != nil {
				return callsite.FailWith[object.Value](action.FailureOf(err, action.CodeOverflow))
			}
			return callsite.Succeed(out)
		}), shape)
	case req.Target == types.StringType:
		return rt.pool.Rule(g, action.Func("render", func(x object.Value) action.Result {
			return callsite.Succeed[object.Value](object.S(fmt.Sprintf("%gC", attr[object.Float](x, "c").V)))
		}), shape)
	}
	return nil
}

func (rt *demoRuntime) attrCtor(t types.TypeID, name string, want types.TypeID) literal.Ctor {
	return func(args []object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("takes one argument, got %d", len(args))
		}
		v, err := rt.pool.Convert(args[0], convert.Config{Target: want, Kind: convert.ExplicitCast})
		if err != nil {
			return nil, err
		}
		return object.NewInstance(t, map[string]object.Value{name: v}), nil
	}
}

// goCtor hands a hosted value to the Go side, so it comes back as foreign.
func (rt *demoRuntime) goCtor(args []object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("takes one argument, got %d", len(args))
	}
	x, err := toGo(args[0])
	if err != nil {
		return nil, err
	}
	return rt.bridge.Wrap(x), nil
}

type goPoint struct{ X, Y int64 }

func toGo(v object.Value) (any, error) {
	switch x := v.(type) {
	case object.Bool:
		return bool(x), nil
	case object.Int:
		switch x.T {
		case types.Int8Type:
			return int8(x.V), nil //nolint:gosec // width checked by the type
		case types.Int16Type:
			return int16(x.V), nil //nolint:gosec // width checked by the type
		case types.Int32Type:
			return int32(x.V), nil //nolint:gosec // width checked by the type
		}
		return int(x.V), nil
	case object.Uint:
		if x.T == types.Uint8Type {
			return uint8(x.V), nil //nolint:gosec // width checked by the type
		}
		return uint(x.V), nil
	case object.Float:
		if x.T == types.Float32Type {
			return float32(x.V), nil
		}
		return x.V, nil
	case object.Str:
		return x.S, nil
	case object.Bytes:
		return []byte(x), nil
	case object.Tuple:
		if len(x) == 2 {
			a, aok := x[0].(object.Int)
			b, bok := x[1].(object.Int)
			if aok && bok {
				return goPoint{X: a.V, Y: b.V}, nil
			}
		}
	case *object.List:
		items, err := object.Collect(x)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			if out[i], err = toGo(item); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("no Go counterpart for %s", object.Inspect(v))
}

// goTypeName is shown by explain for foreign values.
func goTypeName(v object.Value) string {
	f, ok := v.(object.Foreign)
	if !ok {
		return ""
	}
	return reflect.TypeOf(f.V).String()
}
