package object

// Native lists the Go types a converted value can be unboxed to.
type Native interface {
	bool | rune | int64 | uint64 | float64 | string
}

// Unbox extracts the Go payload of v. ok is false when v's representation
// does not match T.
func Unbox[T Native](v Value) (T, bool) {
	var out T
	switch p := any(&out).(type) {
	case *bool:
		b, ok := v.(Bool)
		*p = bool(b)
		return out, ok
	case *rune:
		c, ok := v.(Char)
		*p = rune(c)
		return out, ok
	case *int64:
		switch n := v.(type) {
		case Int:
			*p = n.V
			return out, true
		case EnumValue:
			*p = n.V
			return out, true
		}
	case *uint64:
		if n, ok := v.(Uint); ok {
			*p = n.V
			return out, true
		}
	case *float64:
		if n, ok := v.(Float); ok {
			*p = n.V
			return out, true
		}
	case *string:
		s, ok := v.(Str)
		*p = s.S
		return out, ok
	}
	return out, false
}
