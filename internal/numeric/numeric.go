// Package numeric converts between the hosted numeric types with range
// checks. Narrowing goes through safecast; out-of-range values report
// ErrOverflow instead of wrapping.
package numeric

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"fortio.org/safecast"

	"dynsite/internal/object"
	"dynsite/internal/types"
)

var (
	// ErrOverflow reports a value outside the target range.
	ErrOverflow = errors.New("numeric overflow")
	// ErrNotNumeric reports a source or target that is not numeric-like.
	ErrNotNumeric = errors.New("not numeric")
)

// Widens reports whether from to to is a widening conversion under the
// hosted language's rules, which is what makes an implicit conversion
// legal. Widening keeps the range but not always the precision: every
// integer widens to f64, and i64 or u64 values above 2^53 round.
func Widens(in *types.Interner, from, to types.TypeID) bool {
	f, ok := in.Lookup(from)
	if !ok {
		return false
	}
	t, ok := in.Lookup(to)
	if !ok {
		return false
	}
	switch {
	case f.Kind == types.KindInt && t.Kind == types.KindInt,
		f.Kind == types.KindUint && t.Kind == types.KindUint,
		f.Kind == types.KindUint && t.Kind == types.KindInt,
		f.Kind == types.KindFloat && t.Kind == types.KindFloat:
		return t.Width > f.Width
	case (f.Kind == types.KindInt || f.Kind == types.KindUint) && t.Kind == types.KindFloat:
		return t.Width == types.Width64 || f.Width <= types.Width16
	}
	return false
}

// Convert converts a numeric-like value (integers, floats, bool, char,
// enum) to the numeric or char type to.
func Convert(in *types.Interner, v object.Value, to types.TypeID) (object.Value, error) {
	tt, ok := in.Lookup(to)
	if !ok {
		return nil, fmt.Errorf("%w: unknown target type %d", ErrNotNumeric, to)
	}
	switch x := v.(type) {
	case object.Int:
		return fromInt(x.V, to, tt)
	case object.EnumValue:
		return fromInt(x.V, to, tt)
	case object.Char:
		return fromInt(int64(x), to, tt)
	case object.Bool:
		if x {
			return fromInt(1, to, tt)
		}
		return fromInt(0, to, tt)
	case object.Uint:
		return fromUint(x.V, to, tt)
	case object.Float:
		return fromFloat(x.V, to, tt)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotNumeric, types.Label(in, v.TypeID()))
}

func overflow(err error, value any, to types.Type) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v does not fit %s%d: %w", ErrOverflow, value, to.Kind, to.Width, err)
}

func fromInt(n int64, to types.TypeID, tt types.Type) (object.Value, error) {
	switch tt.Kind {
	case types.KindInt:
		if err := checkSigned(n, tt.Width); err != nil {
			return nil, overflow(err, n, tt)
		}
		return object.Int{T: to, V: n}, nil
	case types.KindUint:
		u, err := safecast.Conv[uint64](n)
		if err == nil {
			err = checkUnsigned(u, tt.Width)
		}
		if err != nil {
			return nil, overflow(err, n, tt)
		}
		return object.Uint{T: to, V: u}, nil
	case types.KindFloat:
		return toFloat(float64(n), to, tt)
	case types.KindChar:
		return toChar(n)
	}
	return nil, fmt.Errorf("%w: target %s", ErrNotNumeric, tt.Kind)
}

func fromUint(u uint64, to types.TypeID, tt types.Type) (object.Value, error) {
	switch tt.Kind {
	case types.KindInt:
		n, err := safecast.Conv[int64](u)
		if err == nil {
			err = checkSigned(n, tt.Width)
		}
		if err != nil {
			return nil, overflow(err, u, tt)
		}
		return object.Int{T: to, V: n}, nil
	case types.KindUint:
		if err := checkUnsigned(u, tt.Width); err != nil {
			return nil, overflow(err, u, tt)
		}
		return object.Uint{T: to, V: u}, nil
	case types.KindFloat:
		return toFloat(float64(u), to, tt)
	case types.KindChar:
		n, err := safecast.Conv[int64](u)
		if err != nil {
			return nil, overflow(err, u, tt)
		}
		return toChar(n)
	}
	return nil, fmt.Errorf("%w: target %s", ErrNotNumeric, tt.Kind)
}

// fromFloat truncates toward zero when the target is integral.
func fromFloat(f float64, to types.TypeID, tt types.Type) (object.Value, error) {
	switch tt.Kind {
	case types.KindInt:
		n, err := safecast.Truncate[int64](f)
		if err == nil {
			err = checkSigned(n, tt.Width)
		}
		if err != nil {
			return nil, overflow(err, f, tt)
		}
		return object.Int{T: to, V: n}, nil
	case types.KindUint:
		u, err := safecast.Truncate[uint64](f)
		if err == nil {
			err = checkUnsigned(u, tt.Width)
		}
		if err != nil {
			return nil, overflow(err, f, tt)
		}
		return object.Uint{T: to, V: u}, nil
	case types.KindFloat:
		return toFloat(f, to, tt)
	case types.KindChar:
		n, err := safecast.Truncate[int64](f)
		if err != nil {
			return nil, overflow(err, f, tt)
		}
		return toChar(n)
	}
	return nil, fmt.Errorf("%w: target %s", ErrNotNumeric, tt.Kind)
}

func checkSigned(n int64, w types.Width) error {
	var err error
	switch w {
	case types.Width8:
		_, err = safecast.Conv[int8](n)
	case types.Width16:
		_, err = safecast.Conv[int16](n)
	case types.Width32:
		_, err = safecast.Conv[int32](n)
	}
	return err
}

func checkUnsigned(u uint64, w types.Width) error {
	var err error
	switch w {
	case types.Width8:
		_, err = safecast.Conv[uint8](u)
	case types.Width16:
		_, err = safecast.Conv[uint16](u)
	case types.Width32:
		_, err = safecast.Conv[uint32](u)
	}
	return err
}

// toFloat rounds to float32 when asked; finite values beyond its range
// overflow rather than becoming infinities.
func toFloat(f float64, to types.TypeID, tt types.Type) (object.Value, error) {
	if tt.Width == types.Width32 {
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, overflow(safecast.ErrOutOfRange, f, tt)
		}
		return object.Float{T: to, V: float64(float32(f))}, nil
	}
	return object.Float{T: to, V: f}, nil
}

func toChar(n int64) (object.Value, error) {
	r, err := safecast.Conv[int32](n)
	if err != nil || !utf8.ValidRune(r) {
		return nil, fmt.Errorf("%w: %d is not a code point", ErrOverflow, n)
	}
	return object.Char(r), nil
}
