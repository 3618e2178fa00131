package types

// IsNumeric reports whether id is an integer or float type.
func (in *Interner) IsNumeric(id TypeID) bool {
	switch in.KindOf(id) {
	case KindInt, KindUint, KindFloat:
		return true
	}
	return false
}

// IsInteger reports whether id is a signed or unsigned integer type.
func (in *Interner) IsInteger(id TypeID) bool {
	switch in.KindOf(id) {
	case KindInt, KindUint:
		return true
	}
	return false
}

// IsStringLike reports whether id is string or a class derived from it.
func (in *Interner) IsStringLike(id TypeID) bool {
	return in.DerivesFrom(id, StringType)
}

// IsReferenceKind reports whether values of id may be absent (None).
// Value kinds are bool, char, numerics and enums.
func (in *Interner) IsReferenceKind(id TypeID) bool {
	switch in.KindOf(id) {
	case KindInvalid, KindBool, KindChar, KindInt, KindUint, KindFloat, KindEnum:
		return false
	}
	return true
}

// IsEnumerable reports whether values of id can be walked element by element.
func (in *Interner) IsEnumerable(id TypeID) bool {
	switch in.KindOf(id) {
	case KindString, KindBytes, KindTuple, KindList, KindDict, KindSeq,
		KindArray, KindListOf, KindMapOf, KindSeqOf:
		return true
	case KindClass:
		return in.IsStringLike(id)
	}
	return false
}

// Assignable reports whether a value of src already is a dst without any
// conversion.
func (in *Interner) Assignable(src, dst TypeID) bool {
	if src == NoTypeID || dst == NoTypeID {
		return false
	}
	if src == dst || dst == ObjectType {
		return true
	}
	s, ok := in.Lookup(src)
	if !ok {
		return false
	}
	d, ok := in.Lookup(dst)
	if !ok {
		return false
	}
	switch d.Kind {
	case KindString, KindClass:
		return in.DerivesFrom(src, dst)
	case KindListOf:
		switch s.Kind {
		case KindArray:
			return s.Rank == 1 && s.Elem == d.Elem
		case KindBytes:
			return d.Elem == Uint8Type
		}
	case KindSeqOf:
		switch s.Kind {
		case KindArray:
			return s.Rank == 1 && s.Elem == d.Elem
		case KindListOf:
			return s.Elem == d.Elem
		case KindBytes:
			return d.Elem == Uint8Type
		}
	case KindSeq:
		return in.IsEnumerable(src)
	}
	return false
}
