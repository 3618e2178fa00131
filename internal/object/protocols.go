package object

// Sized values report an element count.
type Sized interface {
	Value
	Len() int
}

// Indexable values support positional access.
type Indexable interface {
	Sized
	At(i int) (Value, error)
}

// Iterable values produce a fresh iterator per walk.
type Iterable interface {
	Value
	Iter() Iterator
}

// Iterator walks a sequence once. Next returns ok=false at the end.
type Iterator interface {
	Next() (v Value, ok bool, err error)
}

// Mapping values support key lookup.
type Mapping interface {
	Sized
	Keys() []Value
	Lookup(key Value) (Value, bool, error)
}

// ConvFunc converts one element; adapters call it lazily.
type ConvFunc func(Value) (Value, error)

// Collect drains an iterable into a slice.
func Collect(it Iterable) ([]Value, error) {
	var out []Value
	iter := it.Iter()
	for {
		v, ok, err := iter.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

type sliceIter struct {
	items []Value
	pos   int
}

func (s *sliceIter) Next() (Value, bool, error) {
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

type indexIter struct {
	src Indexable
	pos int
}

func (s *indexIter) Next() (Value, bool, error) {
	if s.pos >= s.src.Len() {
		return nil, false, nil
	}
	v, err := s.src.At(s.pos)
	if err != nil {
		return nil, false, err
	}
	s.pos++
	return v, true, nil
}
