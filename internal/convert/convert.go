package convert

import (
	"dynsite/internal/action"
	"dynsite/internal/callsite"
	"dynsite/internal/object"
)

// To converts v through site and unboxes the result. A result whose
// representation is not T fails with CodeInvalidCast.
func To[T object.Native](site *Site, v object.Value) (T, error) {
	var zero T
	if v == nil {
		v = object.None
	}
	out, err := site.Invoke(v)
	if err != nil {
		return zero, err
	}
	n, ok := object.Unbox[T](out)
	if !ok {
		return zero, &callsite.Failure{
			Code:    action.CodeInvalidCast,
			Message: "cannot unbox " + object.Inspect(out) + " as " + nativeName[T](),
		}
	}
	return n, nil
}

func nativeName[T object.Native]() string {
	var zero T
	switch any(zero).(type) {
	case bool:
		return "bool"
	case rune:
		return "rune"
	case int64:
		return "int64"
	case uint64:
		return "uint64"
	case float64:
		return "float64"
	default:
		return "string"
	}
}
