package literal_test

import (
	"errors"
	"testing"

	"dynsite/internal/literal"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

type env struct {
	literal.Env
	color, name, bag types.TypeID
}

func newEnv() env {
	in := types.NewInterner()
	color := in.RegisterEnum("Color", types.Int64Type, []types.EnumVariantInfo{
		{Name: "Red", Value: 0},
		{Name: "Green", Value: 1},
	})
	name := in.RegisterClass("Name", types.StringType)
	bag := in.RegisterClass("Bag", types.ObjectType)
	e := env{color: color, name: name, bag: bag}
	e.Env = literal.Env{
		Types: in,
		Names: map[string]types.TypeID{"Color": color, "Name": name, "Bag": bag},
		Ctors: map[string]literal.Ctor{
			"Bag": func(args []object.Value) (object.Value, error) {
				if len(args) != 1 {
					return nil, errors.New("Bag takes one argument")
				}
				return object.NewInstance(bag, map[string]object.Value{"n": args[0]}), nil
			},
		},
	}
	return e
}

func TestReadScalars(t *testing.T) {
	e := newEnv()
	tests := []struct {
		src  string
		want object.Value
	}{
		{"none", object.None},
		{"true", object.Bool(true)},
		{"false", object.Bool(false)},
		{"42", object.I64(42)},
		{"-7", object.I64(-7)},
		{"0x1f", object.I64(31)},
		{"1_000", object.I64(1000)},
		{"18446744073709551615", object.U64(18446744073709551615)},
		{"2.5", object.F64(2.5)},
		{"-1e3", object.F64(-1000)},
		{"'x'", object.Char('x')},
		{`'\n'`, object.Char('\n')},
		{`"héllo"`, object.S("héllo")},
		{`b"a\x00"`, object.Bytes("a\x00")},
		{"i8:-3", object.I8(-3)},
		{"u16:7", object.U16(7)},
		{"f32:1.5", object.F32(1.5)},
		{"char:65", object.Char('A')},
		{`Name:"bob"`, object.Str{T: e.name, S: "bob"}},
		{"Color.Green", object.EnumValue{T: e.color, V: 1}},
		{"(1, 'a')", object.Tuple{object.I64(1), object.Char('a')}},
		{"(1,)", object.Tuple{object.I64(1)}},
		{"()", object.Tuple{}},
		{"(5)", object.I64(5)},
	}
	for _, tt := range tests {
		got, err := literal.ReadValue(e.Env, tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if !object.Equal(got, tt.want) {
			t.Errorf("%s: got %s, want %s", tt.src, object.Describe(e.Types, got), object.Describe(e.Types, tt.want))
		}
	}
}

func TestReadContainers(t *testing.T) {
	e := newEnv()
	got, err := literal.ReadValue(e.Env, `[1, "a", [true]]`)
	if err != nil {
		t.Fatal(err)
	}
	if s := object.Inspect(got); s != `[1, "a", [true]]` {
		t.Fatalf("list read as %s", s)
	}
	got, err = literal.ReadValue(e.Env, `{"a": 1, "b": [2,],}`)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := got.(*object.Dict)
	if !ok || d.Len() != 2 {
		t.Fatalf("expected a two entry dict, got %s", object.Inspect(got))
	}
	v, ok, err := d.Lookup(object.S("a"))
	if err != nil || !ok || !object.Equal(v, object.I64(1)) {
		t.Fatalf(`lookup "a" = %v %v %v`, v, ok, err)
	}
}

func TestReadConstructors(t *testing.T) {
	e := newEnv()
	got, err := literal.ReadValue(e.Env, "Bag(3)")
	if err != nil {
		t.Fatal(err)
	}
	inst, ok := got.(*object.Instance)
	if !ok || inst.T != e.bag || !object.Equal(inst.Attr("n"), object.I64(3)) {
		t.Fatalf("Bag(3) read as %s", object.Describe(e.Types, got))
	}
	got, err = literal.ReadValue(e.Env, "ref(i32:1)")
	if err != nil {
		t.Fatal(err)
	}
	r, ok := got.(*object.Ref)
	if !ok || e.Types.KindOf(r.T) != types.KindRef || !object.Equal(r.Get(), object.I32(1)) {
		t.Fatalf("ref read as %s", object.Describe(e.Types, got))
	}
	if _, err := literal.ReadValue(e.Env, "Bag(1, 2)"); err == nil {
		t.Fatalf("constructor errors must surface")
	}
}

func TestReadValues(t *testing.T) {
	e := newEnv()
	vals, err := literal.ReadValues(e.Env, `1, "a", Color.Red`)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vals))
	}
	vals, err = literal.ReadValues(e.Env, "  ")
	if err != nil || len(vals) != 0 {
		t.Fatalf("blank input: %v %v", vals, err)
	}
}

func TestInspectRoundTrips(t *testing.T) {
	e := newEnv()
	for _, v := range []object.Value{
		object.I8(-4), object.U32(9), object.F32(0.5), object.F64(3),
		object.Char('é'), object.S(`q"uote`), object.Bytes{1, 'z'},
		object.Tuple{object.None, object.Bool(true)},
	} {
		got, err := literal.ReadValue(e.Env, object.Inspect(v))
		if err != nil {
			t.Fatalf("%s: %v", object.Inspect(v), err)
		}
		if !object.Equal(got, v) {
			t.Fatalf("%s read back as %s", object.Describe(e.Types, v), object.Describe(e.Types, got))
		}
	}
}

func TestReadValueErrors(t *testing.T) {
	e := newEnv()
	tests := []struct {
		src     string
		unknown bool
	}{
		{"", false},
		{"1 2", false},
		{"[1, 2", false},
		{`"open`, false},
		{"'ab'", false},
		{"i8:300", false},
		{"Name:1", false},
		{"- x", false},
		{"{1 2}", false},
		{"Color.Blue", true},
		{"Shape.Round", true},
		{"Nope(1)", true},
		{"maybe", true},
	}
	for _, tt := range tests {
		_, err := literal.ReadValue(e.Env, tt.src)
		if err == nil {
			t.Errorf("%q: expected an error", tt.src)
			continue
		}
		if got := errors.Is(err, literal.ErrUnknownName); got != tt.unknown {
			t.Errorf("%q: unknown name = %v, want %v (%v)", tt.src, got, tt.unknown, err)
		}
	}
	var se *literal.SyntaxError
	_, err := literal.ReadValue(e.Env, "[1, ?]")
	if !errors.As(err, &se) || se.Offset != 4 {
		t.Fatalf("expected a syntax error at offset 4, got %v", err)
	}
}

func TestReadType(t *testing.T) {
	e := newEnv()
	in := e.Types
	tests := []struct {
		src  string
		want types.TypeID
	}{
		{"i32", types.Int32Type},
		{"object", types.ObjectType},
		{"Seq", types.SeqType},
		{"Color", e.color},
		{"Name", e.name},
		{"List<u8>", in.Intern(types.MakeListOf(types.Uint8Type))},
		{"Map<string, i64>", in.Intern(types.MakeMapOf(types.StringType, types.Int64Type))},
		{"Seq<Name>", in.Intern(types.MakeSeqOf(e.name))},
		{"ref<i64>", in.Intern(types.MakeRef(types.Int64Type))},
		{"i64[]", in.Intern(types.MakeArray(types.Int64Type, 1))},
		{"f64[,,]", in.Intern(types.MakeArray(types.Float64Type, 3))},
		{"List<i8[]>", in.Intern(types.MakeListOf(in.Intern(types.MakeArray(types.Int8Type, 1))))},
	}
	for _, tt := range tests {
		got, err := literal.ReadType(e.Env, tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, types.Label(in, got), types.Label(in, tt.want))
		}
	}
	for _, src := range []string{"", "Widget", "List<i8, i8>", "Map<i8>", "i64[", "Box<i8>", "i8 i8"} {
		if _, err := literal.ReadType(e.Env, src); err == nil {
			t.Errorf("%q: expected an error", src)
		}
	}
}
