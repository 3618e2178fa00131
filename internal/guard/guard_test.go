package guard

import (
	"testing"

	"dynsite/internal/object"
	"dynsite/internal/types"
)

func TestCompileTypeAndLength(t *testing.T) {
	g := New(TypeIs(types.StringType), RuneLenEq(1))
	pred := g.Compile(nil)
	if !pred(object.S("é")) {
		t.Fatalf("one code point must match")
	}
	if pred(object.S("ab")) || pred(object.I64(1)) {
		t.Fatalf("guard accepted a value it must reject")
	}
	ne := New(TypeIs(types.StringType), RuneLenNe(1)).Compile(nil)
	if !ne(object.S("")) || ne(object.S("x")) {
		t.Fatalf("length mismatch guard is wrong")
	}
}

func TestCompileZeroTests(t *testing.T) {
	zero := New(TypeIs(types.Int32Type), Zero()).Compile(nil)
	nonzero := New(TypeIs(types.Int32Type), NonZero()).Compile(nil)
	if !zero(object.I32(0)) || zero(object.I32(2)) || zero(object.I64(0)) {
		t.Fatalf("zero guard is wrong")
	}
	if !nonzero(object.I32(-1)) || nonzero(object.I32(0)) {
		t.Fatalf("nonzero guard is wrong")
	}
	if New(Zero()).Compile(nil)(object.S("")) {
		t.Fatalf("strings are not numeric")
	}
}

func TestTruthClassUsesClassifier(t *testing.T) {
	classify := func(id types.TypeID) uint8 {
		if id == types.StringType || id == types.ListType {
			return 4
		}
		return 0
	}
	pred := New(TruthClass(4)).Compile(classify)
	if !pred(object.S("x")) || !pred(object.NewList()) {
		t.Fatalf("all members of the class must match")
	}
	if pred(object.I64(1)) {
		t.Fatalf("other classes must not match")
	}
	if New(TruthClass(4)).Compile(nil)(object.S("x")) {
		t.Fatalf("no classifier means no match")
	}
}

func TestNoneGuard(t *testing.T) {
	pred := New(IsNone()).Compile(nil)
	if !pred(object.None) || !pred(nil) || pred(object.Bool(false)) {
		t.Fatalf("none guard is wrong")
	}
	if !New(TypeIs(types.NothingType)).Compile(nil)(nil) {
		t.Fatalf("nil must be typed as none")
	}
}

func TestFingerprint(t *testing.T) {
	a := New(TypeIs(types.StringType), RuneLenEq(1))
	b := New(TypeIs(types.StringType), RuneLenEq(1))
	c := New(TypeIs(types.StringType), RuneLenNe(1))
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("equal guards must hash equally")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatalf("different guards should hash differently")
	}
	if New().Fingerprint() == 0 {
		t.Fatalf("fingerprint must never be zero")
	}
}

func TestDescribe(t *testing.T) {
	in := types.NewInterner()
	got := New(TypeIs(types.Int32Type), NonZero()).Describe(in)
	if got != "type(i32) && != 0" {
		t.Fatalf("unexpected description %q", got)
	}
	if New().Describe(in) != "true" {
		t.Fatalf("empty guard must read as true")
	}
}
