package types

import "fmt"

// TypeID uniquely identifies a hosted type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Builtin TypeIDs. NewInterner seeds them in this exact order, so they are
// stable across interners and can be used as constants.
const (
	NothingType TypeID = iota + 1
	BoolType
	CharType
	StringType
	BytesType
	Int8Type
	Int16Type
	Int32Type
	Int64Type
	Uint8Type
	Uint16Type
	Uint32Type
	Uint64Type
	Float32Type
	Float64Type
	TupleType
	ListType
	DictType
	ObjectType
	SeqType
	IterType

	firstUserType
)

// Aliases for the default-width numerics.
const (
	IntType   = Int64Type
	UintType  = Uint64Type
	FloatType = Float64Type
)

// Kind enumerates all supported kinds of hosted types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNothing
	KindBool
	KindChar
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindTuple
	KindList
	KindDict
	KindObject
	KindSeq
	KindIter
	KindArray
	KindListOf
	KindMapOf
	KindSeqOf
	KindEnum
	KindRef
	KindClass
	KindForeign
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNothing:
		return "nothing"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindObject:
		return "object"
	case KindSeq:
		return "seq"
	case KindIter:
		return "iter"
	case KindArray:
		return "array"
	case KindListOf:
		return "list-of"
	case KindMapOf:
		return "map-of"
	case KindSeqOf:
		return "seq-of"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	case KindClass:
		return "class"
	case KindForeign:
		return "foreign"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats in bits.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Type is a compact descriptor for hosted types.
//
// Elem is the element type for arrays, List<T>, Seq<T> and ref<T>; for
// Map<K, V> Key holds K and Elem holds V. Payload indexes side tables for
// nominal kinds (enum, class, foreign).
type Type struct {
	Kind    Kind
	Elem    TypeID
	Key     TypeID
	Rank    uint8
	Width   Width
	Payload uint32
}

// MakeInt returns a signed integer descriptor.
func MakeInt(w Width) Type { return Type{Kind: KindInt, Width: w} }

// MakeUint returns an unsigned integer descriptor.
func MakeUint(w Width) Type { return Type{Kind: KindUint, Width: w} }

// MakeFloat returns a float descriptor.
func MakeFloat(w Width) Type { return Type{Kind: KindFloat, Width: w} }

// MakeArray returns a descriptor for a rank-N array of elem.
func MakeArray(elem TypeID, rank uint8) Type {
	if rank == 0 {
		rank = 1
	}
	return Type{Kind: KindArray, Elem: elem, Rank: rank}
}

// MakeListOf returns a descriptor for the generic List<elem>.
func MakeListOf(elem TypeID) Type { return Type{Kind: KindListOf, Elem: elem} }

// MakeSeqOf returns a descriptor for the generic Seq<elem>.
func MakeSeqOf(elem TypeID) Type { return Type{Kind: KindSeqOf, Elem: elem} }

// MakeMapOf returns a descriptor for the generic Map<key, value>.
func MakeMapOf(key, value TypeID) Type { return Type{Kind: KindMapOf, Key: key, Elem: value} }

// MakeRef returns a descriptor for a mutable reference cell.
func MakeRef(elem TypeID) Type { return Type{Kind: KindRef, Elem: elem} }
