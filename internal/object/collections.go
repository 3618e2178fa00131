package object

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"dynsite/internal/types"
)

// ErrIndex reports an out-of-range positional access.
type ErrIndex struct {
	Index, Len int
}

func (e *ErrIndex) Error() string {
	return fmt.Sprintf("index %d out of range [0:%d]", e.Index, e.Len)
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return &ErrIndex{Index: i, Len: n}
	}
	return nil
}

// Len counts code points.
func (v Str) Len() int { return utf8.RuneCountInString(v.S) }

// Iter yields one single-code-point string per rune.
func (v Str) Iter() Iterator { return &runeIter{s: v.S} }

type runeIter struct {
	s   string
	pos int
}

func (r *runeIter) Next() (Value, bool, error) {
	if r.pos >= len(r.s) {
		return nil, false, nil
	}
	_, size := utf8.DecodeRuneInString(r.s[r.pos:])
	unit := S(r.s[r.pos : r.pos+size])
	r.pos += size
	return unit, true, nil
}

// Tuple is an immutable fixed-size sequence.
type Tuple []Value

func (Tuple) TypeID() types.TypeID { return types.TupleType }
func (t Tuple) Len() int           { return len(t) }
func (t Tuple) Iter() Iterator     { return &sliceIter{items: t} }

func (t Tuple) At(i int) (Value, error) {
	if err := checkIndex(i, len(t)); err != nil {
		return nil, err
	}
	return t[i], nil
}

// Bytes is an immutable byte string; elements are u8.
type Bytes []byte

func (Bytes) TypeID() types.TypeID { return types.BytesType }
func (b Bytes) Len() int           { return len(b) }
func (b Bytes) Iter() Iterator     { return &indexIter{src: b} }

func (b Bytes) At(i int) (Value, error) {
	if err := checkIndex(i, len(b)); err != nil {
		return nil, err
	}
	return U8(b[i]), nil
}

// List is the hosted mutable list.
type List struct {
	mu    sync.RWMutex
	items []Value
}

// NewList builds a list holding items.
func NewList(items ...Value) *List {
	return &List{items: items}
}

func (*List) TypeID() types.TypeID { return types.ListType }

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List) At(i int) (Value, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := checkIndex(i, len(l.items)); err != nil {
		return nil, err
	}
	return l.items[i], nil
}

// Append adds v at the end.
func (l *List) Append(v Value) {
	l.mu.Lock()
	l.items = append(l.items, v)
	l.mu.Unlock()
}

func (l *List) Iter() Iterator { return &indexIter{src: l} }

// Dict is the hosted insertion-ordered dictionary.
type Dict struct {
	mu   sync.RWMutex
	keys []Value
	vals []Value
}

// NewDict builds an empty dictionary.
func NewDict() *Dict { return &Dict{} }

func (*Dict) TypeID() types.TypeID { return types.DictType }

func (d *Dict) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.keys)
}

// Set inserts or replaces the entry for key.
func (d *Dict) Set(key, val Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, k := range d.keys {
		if Equal(k, key) {
			d.vals[i] = val
			return
		}
	}
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, val)
}

func (d *Dict) Keys() []Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Value(nil), d.keys...)
}

func (d *Dict) Lookup(key Value) (Value, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i, k := range d.keys {
		if Equal(k, key) {
			return d.vals[i], true, nil
		}
	}
	return nil, false, nil
}

// Iter walks the keys.
func (d *Dict) Iter() Iterator { return &sliceIter{items: d.Keys()} }

// Array is a typed rank-1 array produced by conversions.
type Array struct {
	T     types.TypeID
	Elems []Value
}

func (a *Array) TypeID() types.TypeID { return a.T }
func (a *Array) Len() int             { return len(a.Elems) }
func (a *Array) Iter() Iterator       { return &sliceIter{items: a.Elems} }

func (a *Array) At(i int) (Value, error) {
	if err := checkIndex(i, len(a.Elems)); err != nil {
		return nil, err
	}
	return a.Elems[i], nil
}
