package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is safe for concurrent use: conversion binders query it from many
// goroutines while nominal types may still be registered.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	enums    []EnumInfo
	classes  []ClassInfo
	foreigns []ForeignInfo
}

var builtinDescriptors = [...]Type{
	NothingType: {Kind: KindNothing},
	BoolType:    {Kind: KindBool},
	CharType:    {Kind: KindChar},
	StringType:  {Kind: KindString},
	BytesType:   {Kind: KindBytes},
	Int8Type:    MakeInt(Width8),
	Int16Type:   MakeInt(Width16),
	Int32Type:   MakeInt(Width32),
	Int64Type:   MakeInt(Width64),
	Uint8Type:   MakeUint(Width8),
	Uint16Type:  MakeUint(Width16),
	Uint32Type:  MakeUint(Width32),
	Uint64Type:  MakeUint(Width64),
	Float32Type: MakeFloat(Width32),
	Float64Type: MakeFloat(Width64),
	TupleType:   {Kind: KindTuple},
	ListType:    {Kind: KindList},
	DictType:    {Kind: KindDict},
	ObjectType:  {Kind: KindObject},
	SeqType:     {Kind: KindSeq},
	IterType:    {Kind: KindIter},
}

// NewInterner constructs an interner seeded with the builtin types.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	// reserve 0 as invalid sentinel in every table
	in.enums = append(in.enums, EnumInfo{})
	in.classes = append(in.classes, ClassInfo{})
	in.foreigns = append(in.foreigns, ForeignInfo{})
	in.types = append(in.types, Type{Kind: KindInvalid})
	for id := NothingType; id < firstUserType; id++ {
		if got := in.internRaw(builtinDescriptors[id]); got != id {
			panic(fmt.Sprintf("types: builtin %d interned as %d", id, got))
		}
	}
	return in
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
// Callers hold the write lock (or own the interner exclusively).
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil || id == NoTypeID {
		return Type{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, or KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Len reports how many types are interned, the sentinel included.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

type typeKey Type

func nextSlot(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("types: side table overflow: %w", err))
	}
	return slot
}
