package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	cases := map[TypeID]Kind{
		NothingType: KindNothing,
		BoolType:    KindBool,
		CharType:    KindChar,
		StringType:  KindString,
		Int32Type:   KindInt,
		Uint8Type:   KindUint,
		Float64Type: KindFloat,
		ObjectType:  KindObject,
		IterType:    KindIter,
	}
	for id, want := range cases {
		got, ok := in.Lookup(id)
		if !ok {
			t.Fatalf("builtin %d not interned", id)
		}
		if got.Kind != want {
			t.Fatalf("builtin %d: expected %v, got %v", id, want, got.Kind)
		}
	}
	if in.MustLookup(Int16Type).Width != Width16 {
		t.Fatalf("i16 width mismatch")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	arr1 := in.Intern(MakeArray(Int32Type, 1))
	arr2 := in.Intern(MakeArray(Int32Type, 1))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if arr3 := in.Intern(MakeArray(Int32Type, 2)); arr3 == arr1 {
		t.Fatalf("rank must affect identity")
	}
	if m1, m2 := in.Intern(MakeMapOf(StringType, IntType)), in.Intern(MakeMapOf(IntType, StringType)); m1 == m2 {
		t.Fatalf("map key/value order must affect identity")
	}
}

func TestNominalTypesAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.RegisterClass("A", NoTypeID)
	b := in.RegisterClass("A", NoTypeID)
	if a == b {
		t.Fatalf("classes with equal names must still be distinct")
	}
	if Label(in, a) != "A" {
		t.Fatalf("unexpected label %q", Label(in, a))
	}
}

func TestEnumInfo(t *testing.T) {
	in := NewInterner()
	color := in.RegisterEnum("Color", Int32Type, []EnumVariantInfo{
		{Name: "Red", Value: 0},
		{Name: "Green", Value: 1},
	})
	info, ok := in.EnumInfo(color)
	if !ok {
		t.Fatalf("enum info missing")
	}
	if info.BaseType != Int32Type {
		t.Fatalf("expected i32 base, got %s", Label(in, info.BaseType))
	}
	def, ok := info.DefaultVariant()
	if !ok || def.Name != "Red" {
		t.Fatalf("expected Red as default, got %+v", def)
	}
	if _, ok := in.EnumInfo(StringType); ok {
		t.Fatalf("string is not an enum")
	}
}

func TestAssignable(t *testing.T) {
	in := NewInterner()
	name := in.RegisterClass("Name", StringType)
	intArr := in.Intern(MakeArray(IntType, 1))
	intList := in.Intern(MakeListOf(IntType))
	intSeq := in.Intern(MakeSeqOf(IntType))
	byteList := in.Intern(MakeListOf(Uint8Type))

	cases := []struct {
		src, dst TypeID
		want     bool
	}{
		{IntType, IntType, true},
		{IntType, ObjectType, true},
		{Int32Type, IntType, false},
		{name, StringType, true},
		{StringType, name, false},
		{intArr, intList, true},
		{intList, intSeq, true},
		{BytesType, byteList, true},
		{StringType, SeqType, true},
		{name, SeqType, true},
		{IntType, SeqType, false},
		{TupleType, intArr, false},
	}
	for _, tc := range cases {
		if got := in.Assignable(tc.src, tc.dst); got != tc.want {
			t.Errorf("Assignable(%s, %s) = %v, want %v", Label(in, tc.src), Label(in, tc.dst), got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	in := NewInterner()
	cases := map[TypeID]string{
		in.Intern(MakeArray(IntType, 1)):             "i64[]",
		in.Intern(MakeArray(Int32Type, 2)):           "i32[,]",
		in.Intern(MakeMapOf(StringType, Float32Type)): "Map<string, f32>",
		in.Intern(MakeSeqOf(CharType)):               "Seq<char>",
		in.Intern(MakeRef(BoolType)):                 "ref<bool>",
		NothingType:                                  "none",
	}
	for id, want := range cases {
		if got := Label(in, id); got != want {
			t.Errorf("label %d: got %q, want %q", id, got, want)
		}
	}
}
