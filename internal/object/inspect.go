package object

import (
	"strconv"
	"strings"

	"dynsite/internal/types"
)

const maxInspectDepth = 8

// Inspect renders v in literal syntax. Non-default numeric widths carry a
// prefix (i32:3, u8:7) so the rendering round-trips through the literal reader.
func Inspect(v Value) string {
	var sb strings.Builder
	inspect(&sb, v, 0)
	return sb.String()
}

// Describe renders v followed by the label of its type.
func Describe(in *types.Interner, v Value) string {
	if v == nil {
		return "none : none"
	}
	return Inspect(v) + " : " + types.Label(in, v.TypeID())
}

func inspect(sb *strings.Builder, v Value, depth int) {
	if depth > maxInspectDepth {
		sb.WriteString("...")
		return
	}
	switch x := v.(type) {
	case nil, NoneValue:
		sb.WriteString("none")
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(x)))
	case Char:
		sb.WriteString(strconv.QuoteRune(rune(x)))
	case Int:
		sb.WriteString(widthPrefix(x.T))
		sb.WriteString(strconv.FormatInt(x.V, 10))
	case Uint:
		sb.WriteString(widthPrefix(x.T))
		sb.WriteString(strconv.FormatUint(x.V, 10))
	case Float:
		s := strconv.FormatFloat(x.V, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		sb.WriteString(widthPrefix(x.T))
		sb.WriteString(s)
	case Str:
		sb.WriteString(strconv.Quote(x.S))
	case Bytes:
		sb.WriteString("b")
		sb.WriteString(strconv.Quote(string(x)))
	case Tuple:
		sb.WriteByte('(')
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			inspect(sb, e, depth+1)
		}
		if len(x) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case Mapping:
		sb.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			inspect(sb, k, depth+1)
			sb.WriteString(": ")
			val, _, err := x.Lookup(k)
			if err != nil {
				sb.WriteString("<error>")
				continue
			}
			inspect(sb, val, depth+1)
		}
		sb.WriteByte('}')
	case Indexable:
		sb.WriteByte('[')
		for i := 0; i < x.Len(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			e, err := x.At(i)
			if err != nil {
				sb.WriteString("<error>")
				continue
			}
			inspect(sb, e, depth+1)
		}
		sb.WriteByte(']')
	case EnumValue:
		sb.WriteString("enum(")
		sb.WriteString(strconv.FormatInt(x.V, 10))
		sb.WriteByte(')')
	case *Ref:
		sb.WriteString("ref(")
		inspect(sb, x.Get(), depth+1)
		sb.WriteByte(')')
	case *Instance:
		sb.WriteString("<instance>")
	case Foreign:
		sb.WriteString("<foreign>")
	case *IndexIter:
		sb.WriteString("<iter>")
	case Iterable:
		sb.WriteString("<seq>")
	default:
		sb.WriteString("<?>")
	}
}

func widthPrefix(t types.TypeID) string {
	switch t {
	case types.Int8Type:
		return "i8:"
	case types.Int16Type:
		return "i16:"
	case types.Int32Type:
		return "i32:"
	case types.Uint8Type:
		return "u8:"
	case types.Uint16Type:
		return "u16:"
	case types.Uint32Type:
		return "u32:"
	case types.Uint64Type:
		return "u64:"
	case types.Float32Type:
		return "f32:"
	}
	return ""
}

func itoa(n int) string { return strconv.Itoa(n) }

// Equal reports structural equality for scalars and tuples, identity for
// mutable containers.
func Equal(a, b Value) bool {
	if IsNone(a) || IsNone(b) {
		return IsNone(a) && IsNone(b)
	}
	if a.TypeID() != b.TypeID() {
		return false
	}
	switch x := a.(type) {
	case Tuple:
		y, ok := b.(Tuple)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Bytes:
		y, ok := b.(Bytes)
		return ok && string(x) == string(y)
	case Bool, Char, Int, Uint, Float, Str, EnumValue:
		return a == b
	case *List, *Dict, *Array, *Ref, *Instance:
		return a == b
	}
	return false
}
