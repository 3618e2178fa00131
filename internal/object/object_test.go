package object

import (
	"errors"
	"testing"

	"dynsite/internal/types"
)

func TestInspectLiterals(t *testing.T) {
	list := NewList(I64(1), S("a"))
	dict := NewDict()
	dict.Set(S("k"), I32(2))
	cases := []struct {
		v    Value
		want string
	}{
		{None, "none"},
		{Bool(true), "true"},
		{Char('x'), "'x'"},
		{I64(-3), "-3"},
		{I32(7), "i32:7"},
		{U8(255), "u8:255"},
		{F64(2), "2.0"},
		{S("hi"), `"hi"`},
		{Bytes("ab"), `b"ab"`},
		{Tuple{I64(1)}, "(1,)"},
		{list, `[1, "a"]`},
		{dict, `{"k": i32:2}`},
	}
	for _, tc := range cases {
		if got := Inspect(tc.v); got != tc.want {
			t.Errorf("Inspect: got %s, want %s", got, tc.want)
		}
	}
}

func TestStringIteratesCodePoints(t *testing.T) {
	units, err := Collect(S("añb"))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if got := units[1].(Str).S; got != "ñ" {
		t.Fatalf("expected ñ, got %q", got)
	}
	if S("añb").Len() != 3 {
		t.Fatalf("length must count code points")
	}
}

func TestEncodeLatin1(t *testing.T) {
	b, err := EncodeLatin1("aé")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(b) != 2 || b[1] != 0xE9 {
		t.Fatalf("unexpected bytes %v", []byte(b))
	}
	_, err = EncodeLatin1("日")
	var encErr *ErrEncode
	if !errors.As(err, &encErr) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}

func TestListViewConvertsLazily(t *testing.T) {
	src := NewList(I64(1))
	calls := 0
	view := &ListView{T: types.ListType, Src: src, Conv: func(v Value) (Value, error) {
		calls++
		return v, nil
	}}
	if calls != 0 {
		t.Fatalf("view must not convert eagerly")
	}
	src.Append(I64(2))
	if view.Len() != 2 {
		t.Fatalf("view must reflect source mutation")
	}
	if _, err := view.At(1); err != nil {
		t.Fatalf("at: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one conversion, got %d", calls)
	}
	if _, err := view.At(5); err == nil {
		t.Fatalf("expected index error")
	}
}

func TestIndexIterRereadsLength(t *testing.T) {
	n := 2
	it := &IndexIter{Src: None, Funcs: IndexFuncs{
		Len:   func(Value) (int, error) { return n, nil },
		Index: func(_ Value, i int) (Value, error) { return I64(int64(i)), nil },
	}}
	count := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		count++
		if count == 1 {
			n = 3
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 elements, got %d", count)
	}
}

func TestUnbox(t *testing.T) {
	if v, ok := Unbox[int64](I32(4)); !ok || v != 4 {
		t.Fatalf("unbox int: %v %v", v, ok)
	}
	if _, ok := Unbox[string](I64(1)); ok {
		t.Fatalf("int must not unbox as string")
	}
	if v, ok := Unbox[rune](Char('z')); !ok || v != 'z' {
		t.Fatalf("unbox char: %v %v", v, ok)
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Tuple{I64(1), S("a")}, Tuple{I64(1), S("a")}) {
		t.Fatalf("tuples with equal items must be equal")
	}
	if Equal(I64(1), I32(1)) {
		t.Fatalf("different widths must differ")
	}
	if Equal(NewList(), NewList()) {
		t.Fatalf("distinct lists compare by identity")
	}
	if !Equal(None, nil) {
		t.Fatalf("nil is none")
	}
}
