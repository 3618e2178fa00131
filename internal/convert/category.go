package convert

import "dynsite/internal/types"

// Category is the closed set of target families with dedicated resolution.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryBool
	CategoryChar
	CategoryArray
	CategoryGeneric
	CategorySeq
	CategoryIter
	CategoryEnum
)

func (c Category) String() string {
	switch c {
	case CategoryBool:
		return "bool"
	case CategoryChar:
		return "char"
	case CategoryArray:
		return "array"
	case CategoryGeneric:
		return "generic"
	case CategorySeq:
		return "seq"
	case CategoryIter:
		return "iter"
	case CategoryEnum:
		return "enum"
	default:
		return "other"
	}
}

// Categorize classifies a target type.
func Categorize(in *types.Interner, target types.TypeID) Category {
	switch in.KindOf(target) {
	case types.KindBool:
		return CategoryBool
	case types.KindChar:
		return CategoryChar
	case types.KindArray:
		return CategoryArray
	case types.KindListOf, types.KindMapOf, types.KindSeqOf:
		return CategoryGeneric
	case types.KindSeq:
		return CategorySeq
	case types.KindIter:
		return CategoryIter
	case types.KindEnum:
		return CategoryEnum
	}
	return CategoryOther
}
