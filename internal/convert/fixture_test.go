package convert

import (
	"errors"
	"testing"

	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/guard"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// fixture is a small hosted runtime:
//
//	Color  enum on i64 {Red = 0, Green = 1}
//	Name   string-like class
//	Bag    class with a length hook (attribute "n")
//	Flag   class with a truth hook (attribute "on")
//	Vec    class with length and index hooks over attribute "items"
//	Plain  class without hooks
type fixture struct {
	in    *types.Interner
	hooks *capability.Registry
	pool  *Pool

	color, name, bag, flag, vec, plain types.TypeID
}

func newFixture(t *testing.T, cfg PoolConfig) *fixture {
	t.Helper()
	in := types.NewInterner()
	f := &fixture{
		in:    in,
		hooks: capability.NewRegistry(),
		color: in.RegisterEnum("Color", types.Int64Type, []types.EnumVariantInfo{
			{Name: "Red", Value: 0},
			{Name: "Green", Value: 1},
		}),
		name:  in.RegisterClass("Name", types.StringType),
		bag:   in.RegisterClass("Bag", types.NoTypeID),
		flag:  in.RegisterClass("Flag", types.NoTypeID),
		vec:   in.RegisterClass("Vec", types.NoTypeID),
		plain: in.RegisterClass("Plain", types.NoTypeID),
	}
	f.hooks.Register(f.bag, capability.Hooks{
		Len: func(v object.Value) (int, error) {
			return int(v.(*object.Instance).Attr("n").(object.Int).V), nil
		},
	})
	f.hooks.Register(f.flag, capability.Hooks{
		Truth: func(v object.Value) (bool, error) {
			return bool(v.(*object.Instance).Attr("on").(object.Bool)), nil
		},
	})
	items := func(v object.Value) *object.List {
		return v.(*object.Instance).Attr("items").(*object.List)
	}
	f.hooks.Register(f.vec, capability.Hooks{
		Len:   func(v object.Value) (int, error) { return items(v).Len(), nil },
		Index: func(v object.Value, i int) (object.Value, error) { return items(v).At(i) },
	})
	pool, err := NewPool(Env{Types: in, Hooks: f.hooks}, cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	f.pool = pool
	return f
}

func (f *fixture) bagOf(n int64) *object.Instance {
	return object.NewInstance(f.bag, map[string]object.Value{"n": object.I64(n)})
}

func (f *fixture) flagOf(on bool) *object.Instance {
	return object.NewInstance(f.flag, map[string]object.Value{"on": object.Bool(on)})
}

func (f *fixture) vecOf(items ...object.Value) *object.Instance {
	return object.NewInstance(f.vec, map[string]object.Value{"items": object.NewList(items...)})
}

func (f *fixture) nameOf(s string) object.Str { return object.Str{T: f.name, S: s} }

func (f *fixture) site(cfg Config) *Site {
	return f.pool.NewSite("test "+DescribeConfig(f.in, cfg), cfg)
}

func (f *fixture) intern(t types.Type) types.TypeID { return f.in.Intern(t) }

// values is a broad sample of runtime values for property tests.
func (f *fixture) values() []object.Value {
	list := object.NewList(object.I64(1), object.I64(2))
	dict := object.NewDict()
	dict.Set(object.S("a"), object.I64(1))
	arr := &object.Array{T: f.intern(types.MakeArray(types.Int64Type, 1)), Elems: []object.Value{object.I64(4)}}
	return []object.Value{
		object.None,
		object.Bool(true), object.Bool(false),
		object.Char('x'), object.Char(0),
		object.I8(-1), object.I32(0), object.I32(7), object.I64(0), object.I64(1), object.I64(300),
		object.U8(0), object.U8(200), object.U64(1 << 40),
		object.F32(1.5), object.F64(0), object.F64(-2.5),
		object.S(""), object.S("x"), object.S("xy"), object.S("é"),
		f.nameOf("q"), f.nameOf(""),
		object.Tuple{object.I64(1), object.I32(2)},
		object.Tuple{object.S("a")},
		list, dict, object.Bytes("ab"), arr,
		object.EnumValue{T: f.color, V: 1},
		object.NewRef(f.intern(types.MakeRef(types.Int64Type)), object.I64(0)),
		f.bagOf(0), f.bagOf(2),
		f.flagOf(true), f.flagOf(false),
		f.vecOf(object.I64(1)),
		object.NewInstance(f.plain, nil),
	}
}

// targets is a broad sample of conversion targets.
func (f *fixture) targets() []types.TypeID {
	return []types.TypeID{
		types.BoolType, types.CharType, types.StringType, types.Int32Type, types.Uint8Type,
		types.Int64Type, types.Float32Type, types.Float64Type, types.ObjectType,
		types.SeqType, types.IterType, types.TupleType,
		f.color, f.name,
		f.intern(types.MakeArray(types.Int64Type, 1)),
		f.intern(types.MakeArray(types.Int64Type, 2)),
		f.intern(types.MakeListOf(types.Uint8Type)),
		f.intern(types.MakeListOf(types.Int64Type)),
		f.intern(types.MakeMapOf(types.StringType, types.Int64Type)),
		f.intern(types.MakeSeqOf(types.StringType)),
	}
}

func failureCode(t *testing.T, err error) callsite.Code {
	t.Helper()
	var fail *callsite.Failure
	if !errors.As(err, &fail) {
		t.Fatalf("expected a conversion failure, got %v", err)
	}
	return fail.Code
}

func capabilityHooks(convert func(Config, object.Value) *Rule) capability.Hooks {
	return capability.Hooks{Convert: convert}
}

func guardType(t types.TypeID) guard.Guard { return guard.New(guard.TypeIs(t)) }
