package types

import (
	"strconv"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	if typesIn == nil {
		return "?"
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindNothing:
		return "none"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindInt:
		return formatIntType(tt.Width, true)
	case KindUint:
		return formatIntType(tt.Width, false)
	case KindFloat:
		return "f" + strconv.Itoa(int(tt.Width))
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindObject:
		return "object"
	case KindSeq:
		return "Seq"
	case KindIter:
		return "Iter"
	case KindArray:
		elem := labelDepth(typesIn, tt.Elem, depth+1)
		return elem + "[" + strings.Repeat(",", int(tt.Rank)-1) + "]"
	case KindListOf:
		return "List<" + labelDepth(typesIn, tt.Elem, depth+1) + ">"
	case KindSeqOf:
		return "Seq<" + labelDepth(typesIn, tt.Elem, depth+1) + ">"
	case KindMapOf:
		return "Map<" + labelDepth(typesIn, tt.Key, depth+1) + ", " + labelDepth(typesIn, tt.Elem, depth+1) + ">"
	case KindRef:
		return "ref<" + labelDepth(typesIn, tt.Elem, depth+1) + ">"
	case KindEnum:
		if info, ok := typesIn.EnumInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return "enum"
	case KindClass:
		if info, ok := typesIn.ClassInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return "class"
	case KindForeign:
		if info, ok := typesIn.ForeignInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return "foreign"
	default:
		return "?"
	}
}

func formatIntType(width Width, signed bool) string {
	prefix := "u"
	if signed {
		prefix = "i"
	}
	return prefix + strconv.Itoa(int(width))
}
