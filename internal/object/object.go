// Package object defines the runtime values that flow through dynamic call
// sites. Every value reports its hosted TypeID; guards test that id, never
// the Go type.
package object

import (
	"sync"

	"dynsite/internal/types"
)

// Value is any runtime value of the hosted language.
type Value interface {
	TypeID() types.TypeID
}

// NoneValue is the absent value.
type NoneValue struct{}

// None is the single absent value.
var None Value = NoneValue{}

func (NoneValue) TypeID() types.TypeID { return types.NothingType }

// Bool is a hosted boolean.
type Bool bool

func (Bool) TypeID() types.TypeID { return types.BoolType }

// Char is a single Unicode code point.
type Char rune

func (Char) TypeID() types.TypeID { return types.CharType }

// Int is a signed integer of width T. V always fits that width.
type Int struct {
	T types.TypeID
	V int64
}

func (v Int) TypeID() types.TypeID { return v.T }

// Uint is an unsigned integer of width T.
type Uint struct {
	T types.TypeID
	V uint64
}

func (v Uint) TypeID() types.TypeID { return v.T }

// Float is a float of width T.
type Float struct {
	T types.TypeID
	V float64
}

func (v Float) TypeID() types.TypeID { return v.T }

// Str is a string, or an instance of a string-derived class when T is not
// types.StringType.
type Str struct {
	T types.TypeID
	S string
}

func (v Str) TypeID() types.TypeID { return v.T }

// EnumValue is a member (or any underlying value) of enum type T.
type EnumValue struct {
	T types.TypeID
	V int64
}

func (v EnumValue) TypeID() types.TypeID { return v.T }

// Ref is a mutable reference cell; its truthiness is undefined.
type Ref struct {
	T  types.TypeID
	mu sync.RWMutex
	v  Value
}

// NewRef wraps v in a cell of type t.
func NewRef(t types.TypeID, v Value) *Ref {
	return &Ref{T: t, v: v}
}

func (r *Ref) TypeID() types.TypeID { return r.T }

// Get returns the current content.
func (r *Ref) Get() Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v
}

// Set replaces the content.
func (r *Ref) Set(v Value) {
	r.mu.Lock()
	r.v = v
	r.mu.Unlock()
}

// Instance is an instance of a user-defined class.
type Instance struct {
	T     types.TypeID
	Attrs map[string]Value
}

// NewInstance creates an instance of class t with optional attributes.
func NewInstance(t types.TypeID, attrs map[string]Value) *Instance {
	if attrs == nil {
		attrs = make(map[string]Value)
	}
	return &Instance{T: t, Attrs: attrs}
}

func (i *Instance) TypeID() types.TypeID { return i.T }

// Attr returns the named attribute or None.
func (i *Instance) Attr(name string) Value {
	if v, ok := i.Attrs[name]; ok {
		return v
	}
	return None
}

// Foreign carries a value owned by a foreign runtime.
type Foreign struct {
	T types.TypeID
	V any
}

func (f Foreign) TypeID() types.TypeID { return f.T }

// I8..F64 build numerics of the named width.
func I8(v int8) Int     { return Int{T: types.Int8Type, V: int64(v)} }
func I16(v int16) Int   { return Int{T: types.Int16Type, V: int64(v)} }
func I32(v int32) Int   { return Int{T: types.Int32Type, V: int64(v)} }
func I64(v int64) Int   { return Int{T: types.Int64Type, V: v} }
func U8(v uint8) Uint   { return Uint{T: types.Uint8Type, V: uint64(v)} }
func U16(v uint16) Uint { return Uint{T: types.Uint16Type, V: uint64(v)} }
func U32(v uint32) Uint { return Uint{T: types.Uint32Type, V: uint64(v)} }
func U64(v uint64) Uint { return Uint{T: types.Uint64Type, V: v} }
func F32(v float32) Float {
	return Float{T: types.Float32Type, V: float64(v)}
}
func F64(v float64) Float { return Float{T: types.Float64Type, V: v} }

// S builds a plain string.
func S(s string) Str { return Str{T: types.StringType, S: s} }

// IsNone reports whether v is the absent value (or a nil interface).
func IsNone(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NoneValue)
	return ok
}

// IsZero reports whether a numeric-like value (numerics, char, enum) is zero.
// ok is false for other values.
func IsZero(v Value) (zero, ok bool) {
	switch x := v.(type) {
	case Int:
		return x.V == 0, true
	case Uint:
		return x.V == 0, true
	case Float:
		return x.V == 0, true
	case Char:
		return x == 0, true
	case EnumValue:
		return x.V == 0, true
	case Bool:
		return !bool(x), true
	}
	return false, false
}
