// Package guard describes rule guards as data and compiles them to
// predicates. Describing guards first gives every rule a readable form and
// a structural fingerprint used to de-duplicate cache entries.
package guard

import (
	"encoding/binary"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"dynsite/internal/object"
	"dynsite/internal/types"
)

// Op is one guard test.
type Op uint8

const (
	OpTypeIs     Op = iota + 1 // runtime type == Type
	OpIsNone                   // value is None
	OpRuneLenEq                // string value has exactly N code points
	OpRuneLenNe                // string value does not have N code points
	OpZero                     // numeric value == 0
	OpNonZero                  // numeric value != 0
	OpTruthClass               // runtime type's truthiness class == N
)

// Test is a single condition.
type Test struct {
	Op   Op
	Type types.TypeID
	N    int64
}

func TypeIs(t types.TypeID) Test { return Test{Op: OpTypeIs, Type: t} }
func IsNone() Test               { return Test{Op: OpIsNone} }
func RuneLenEq(n int64) Test     { return Test{Op: OpRuneLenEq, N: n} }
func RuneLenNe(n int64) Test     { return Test{Op: OpRuneLenNe, N: n} }
func Zero() Test                 { return Test{Op: OpZero} }
func NonZero() Test              { return Test{Op: OpNonZero} }

// TruthClass matches every type whose truthiness class equals class.
// Classes are assigned by the Classifier passed to Compile.
func TruthClass(class uint8) Test { return Test{Op: OpTruthClass, N: int64(class)} }

// Guard is a conjunction of tests.
type Guard struct {
	Tests []Test
}

// New builds a guard from tests.
func New(tests ...Test) Guard { return Guard{Tests: tests} }

// Classifier maps a runtime type to its truthiness class.
type Classifier func(types.TypeID) uint8

// Fingerprint hashes the guard structure. Equal guards hash equally; the
// result is never zero.
func (g Guard) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [17]byte
	for _, t := range g.Tests {
		buf[0] = byte(t.Op)
		binary.LittleEndian.PutUint64(buf[1:9], uint64(t.Type))
		binary.LittleEndian.PutUint64(buf[9:17], uint64(t.N)) //nolint:gosec // bit pattern only
		_, _ = d.Write(buf[:])                                //nolint:errcheck // hash writes never fail
	}
	if sum := d.Sum64(); sum != 0 {
		return sum
	}
	return 1
}

// Describe renders the guard using type labels from in.
func (g Guard) Describe(in *types.Interner) string {
	if len(g.Tests) == 0 {
		return "true"
	}
	parts := make([]string, len(g.Tests))
	for i, t := range g.Tests {
		parts[i] = t.describe(in)
	}
	return strings.Join(parts, " && ")
}

func (t Test) describe(in *types.Interner) string {
	switch t.Op {
	case OpTypeIs:
		return "type(" + types.Label(in, t.Type) + ")"
	case OpIsNone:
		return "is none"
	case OpRuneLenEq:
		return "len == " + strconv.FormatInt(t.N, 10)
	case OpRuneLenNe:
		return "len != " + strconv.FormatInt(t.N, 10)
	case OpZero:
		return "== 0"
	case OpNonZero:
		return "!= 0"
	case OpTruthClass:
		return "truth-class(" + strconv.FormatInt(t.N, 10) + ")"
	default:
		return "?"
	}
}

func typeOf(v object.Value) types.TypeID {
	if v == nil {
		return types.NothingType
	}
	return v.TypeID()
}

// Compile turns the guard into a predicate. classify may be nil when the
// guard has no truth-class test.
func (g Guard) Compile(classify Classifier) func(object.Value) bool {
	switch len(g.Tests) {
	case 0:
		return func(object.Value) bool { return true }
	case 1:
		t := g.Tests[0]
		if t.Op == OpTypeIs {
			want := t.Type
			return func(v object.Value) bool { return typeOf(v) == want }
		}
		return func(v object.Value) bool { return t.eval(v, classify) }
	case 2:
		a, b := g.Tests[0], g.Tests[1]
		return func(v object.Value) bool { return a.eval(v, classify) && b.eval(v, classify) }
	}
	tests := append([]Test(nil), g.Tests...)
	return func(v object.Value) bool {
		for _, t := range tests {
			if !t.eval(v, classify) {
				return false
			}
		}
		return true
	}
}

func (t Test) eval(v object.Value, classify Classifier) bool {
	switch t.Op {
	case OpTypeIs:
		return typeOf(v) == t.Type
	case OpIsNone:
		return object.IsNone(v)
	case OpRuneLenEq, OpRuneLenNe:
		s, ok := v.(object.Str)
		if !ok {
			return false
		}
		eq := int64(utf8.RuneCountInString(s.S)) == t.N
		return eq == (t.Op == OpRuneLenEq)
	case OpZero, OpNonZero:
		zero, ok := object.IsZero(v)
		if !ok {
			return false
		}
		return zero == (t.Op == OpZero)
	case OpTruthClass:
		return classify != nil && int64(classify(typeOf(v))) == t.N
	}
	return false
}
