package object

import (
	"golang.org/x/text/encoding/charmap"

	"dynsite/internal/types"
)

// ListView presents an indexable source as List<T>. Elements are converted
// on every access, so the view reflects later mutation of the source.
type ListView struct {
	T    types.TypeID
	Src  Indexable
	Conv ConvFunc
}

func (v *ListView) TypeID() types.TypeID { return v.T }
func (v *ListView) Len() int             { return v.Src.Len() }
func (v *ListView) Iter() Iterator       { return &indexIter{src: v} }

func (v *ListView) At(i int) (Value, error) {
	raw, err := v.Src.At(i)
	if err != nil {
		return nil, err
	}
	return v.Conv(raw)
}

// MapView presents a mapping as Map<K, V>.
type MapView struct {
	T       types.TypeID
	Src     Mapping
	KeyConv ConvFunc
	ValConv ConvFunc
}

func (v *MapView) TypeID() types.TypeID { return v.T }
func (v *MapView) Len() int             { return v.Src.Len() }

func (v *MapView) Keys() []Value {
	keys := v.Src.Keys()
	out := make([]Value, 0, len(keys))
	for _, k := range keys {
		ck, err := v.KeyConv(k)
		if err != nil {
			continue
		}
		out = append(out, ck)
	}
	return out
}

// Lookup finds key in the source as given, then converts the value.
func (v *MapView) Lookup(key Value) (Value, bool, error) {
	raw, ok, err := v.Src.Lookup(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	cv, err := v.ValConv(raw)
	if err != nil {
		return nil, true, err
	}
	return cv, true, nil
}

func (v *MapView) Iter() Iterator { return &sliceIter{items: v.Keys()} }

// SeqView presents any iterable as Seq<T>.
type SeqView struct {
	T    types.TypeID
	Src  Iterable
	Conv ConvFunc
}

func (v *SeqView) TypeID() types.TypeID { return v.T }

func (v *SeqView) Iter() Iterator {
	return &convIter{src: v.Src.Iter(), conv: v.Conv}
}

type convIter struct {
	src  Iterator
	conv ConvFunc
}

func (c *convIter) Next() (Value, bool, error) {
	raw, ok, err := c.src.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	v, err := c.conv(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// StringUnits is the Seq over a string's code points, one string per unit.
type StringUnits struct {
	S string
}

func (StringUnits) TypeID() types.TypeID { return types.SeqType }
func (u StringUnits) Iter() Iterator     { return &runeIter{s: u.S} }

// EncodeLatin1 materializes s as bytes, one per code point. Code points
// outside Latin-1 fail.
func EncodeLatin1(s string) (Bytes, error) {
	out := make(Bytes, 0, len(s))
	for i, r := range s {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			return nil, &ErrEncode{Rune: r, Offset: i}
		}
		out = append(out, b)
	}
	return out, nil
}

// ErrEncode reports a code point that has no byte representation.
type ErrEncode struct {
	Rune   rune
	Offset int
}

func (e *ErrEncode) Error() string {
	return "code point " + Inspect(Char(e.Rune)) + " at offset " + itoa(e.Offset) + " does not fit a byte"
}

// IndexFuncs are the length and index capabilities of a value's type.
type IndexFuncs struct {
	Len   func(Value) (int, error)
	Index func(Value, int) (Value, error)
}

// IndexSeq adapts a value exposing length and index hooks to Seq.
type IndexSeq struct {
	Src   Value
	Funcs IndexFuncs
}

func (IndexSeq) TypeID() types.TypeID { return types.SeqType }

func (s IndexSeq) Iter() Iterator {
	return &IndexIter{Src: s.Src, Funcs: s.Funcs}
}

// IndexIter walks a value exposing length and index hooks. The length is
// re-read at each step.
type IndexIter struct {
	Src   Value
	Funcs IndexFuncs
	pos   int
}

func (*IndexIter) TypeID() types.TypeID { return types.IterType }

func (it *IndexIter) Next() (Value, bool, error) {
	n, err := it.Funcs.Len(it.Src)
	if err != nil {
		return nil, false, err
	}
	if it.pos >= n {
		return nil, false, nil
	}
	v, err := it.Funcs.Index(it.Src, it.pos)
	if err != nil {
		return nil, false, err
	}
	it.pos++
	return v, true, nil
}
