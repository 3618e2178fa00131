package types

// ClassInfo describes a user-defined class. Base links to the parent type;
// a class whose chain reaches StringType is string-like.
type ClassInfo struct {
	Name string
	Base TypeID
}

// ForeignInfo names a type owned by a foreign runtime.
type ForeignInfo struct {
	Name string
}

// maxClassDepth bounds base-chain walks.
const maxClassDepth = 64

// RegisterClass allocates a nominal class type.
func (in *Interner) RegisterClass(name string, base TypeID) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nextSlot(len(in.classes))
	in.classes = append(in.classes, ClassInfo{Name: name, Base: base})
	return in.internRaw(Type{Kind: KindClass, Payload: slot})
}

// ClassInfo returns metadata for a class TypeID.
func (in *Interner) ClassInfo(typeID TypeID) (ClassInfo, bool) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindClass {
		return ClassInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.classes) {
		return ClassInfo{}, false
	}
	return in.classes[tt.Payload], true
}

// RegisterForeign allocates a type owned by a foreign runtime.
func (in *Interner) RegisterForeign(name string) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nextSlot(len(in.foreigns))
	in.foreigns = append(in.foreigns, ForeignInfo{Name: name})
	return in.internRaw(Type{Kind: KindForeign, Payload: slot})
}

// ForeignInfo returns metadata for a foreign TypeID.
func (in *Interner) ForeignInfo(typeID TypeID) (ForeignInfo, bool) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindForeign {
		return ForeignInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.foreigns) {
		return ForeignInfo{}, false
	}
	return in.foreigns[tt.Payload], true
}

// DerivesFrom reports whether t is base or a class whose chain reaches base.
func (in *Interner) DerivesFrom(t, base TypeID) bool {
	for n := 0; n < maxClassDepth; n++ {
		if t == base {
			return true
		}
		info, ok := in.ClassInfo(t)
		if !ok || info.Base == NoTypeID {
			return false
		}
		t = info.Base
	}
	return false
}
