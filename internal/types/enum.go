package types //nolint:revive

import "slices"

// EnumVariantInfo stores metadata for a single enum variant.
type EnumVariantInfo struct {
	Name  string
	Value int64
}

// EnumInfo stores metadata for an enum type.
type EnumInfo struct {
	Name     string
	BaseType TypeID
	Variants []EnumVariantInfo
}

// DefaultVariant returns the member whose value is zero. ok is false when
// the enum declares no such member; the zero value is still a valid enum
// value in that case.
func (e *EnumInfo) DefaultVariant() (EnumVariantInfo, bool) {
	if e == nil {
		return EnumVariantInfo{}, false
	}
	for _, v := range e.Variants {
		if v.Value == 0 {
			return v, true
		}
	}
	return EnumVariantInfo{}, false
}

// VariantByName finds a member by name.
func (e *EnumInfo) VariantByName(name string) (EnumVariantInfo, bool) {
	if e == nil {
		return EnumVariantInfo{}, false
	}
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return EnumVariantInfo{}, false
}

// VariantByValue finds a member by its underlying value.
func (e *EnumInfo) VariantByValue(value int64) (EnumVariantInfo, bool) {
	if e == nil {
		return EnumVariantInfo{}, false
	}
	for _, v := range e.Variants {
		if v.Value == value {
			return v, true
		}
	}
	return EnumVariantInfo{}, false
}

// RegisterEnum allocates a nominal enum type whose values are stored as base.
// base must be an integer type.
func (in *Interner) RegisterEnum(name string, base TypeID, variants []EnumVariantInfo) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nextSlot(len(in.enums))
	in.enums = append(in.enums, EnumInfo{
		Name:     name,
		BaseType: base,
		Variants: slices.Clone(variants),
	})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot})
}

// EnumInfo returns metadata for the provided enum TypeID.
func (in *Interner) EnumInfo(typeID TypeID) (*EnumInfo, bool) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindEnum {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.enums) {
		return nil, false
	}
	info := in.enums[tt.Payload]
	return &info, true
}
