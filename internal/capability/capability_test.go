package capability

import (
	"sync"
	"testing"

	"dynsite/internal/object"
	"dynsite/internal/types"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"", ImplicitCast},
		{"implicit", ImplicitCast},
		{"explicit", ExplicitCast},
		{"implicit-try", ImplicitTry},
		{"explicit-try", ExplicitTry},
		{"try", ExplicitTry},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseKind(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseKind("sideways"); err == nil {
		t.Fatalf("expected an error for an unknown kind")
	}
}

func TestKindExplicit(t *testing.T) {
	for k, want := range map[Kind]bool{ImplicitCast: false, ImplicitTry: false, ExplicitCast: true, ExplicitTry: true} {
		if k.Explicit() != want {
			t.Errorf("%s.Explicit() = %v", k, !want)
		}
	}
}

func TestKindIsTry(t *testing.T) {
	for k, want := range map[Kind]bool{ImplicitCast: false, ImplicitTry: true, ExplicitCast: false, ExplicitTry: true} {
		if k.IsTry() != want {
			t.Errorf("%s.IsTry() = %v", k, !want)
		}
	}
}

func TestRegistry(t *testing.T) {
	var nilReg *Registry
	if _, ok := nilReg.Lookup(types.BoolType); ok {
		t.Fatalf("a nil registry has no hooks")
	}

	r := NewRegistry()
	in := types.NewInterner()
	bag := in.RegisterClass("Bag", types.NoTypeID)
	r.Register(bag, Hooks{Len: func(object.Value) (int, error) { return 3, nil }})
	h, ok := r.Lookup(bag)
	if !ok || h.Len == nil || h.Truth != nil {
		t.Fatalf("unexpected hooks %+v", h)
	}
	if n, _ := h.Len(object.None); n != 3 {
		t.Fatalf("Len hook = %d", n)
	}
	r.Register(bag, Hooks{Truth: func(object.Value) (bool, error) { return true, nil }})
	if h, _ = r.Lookup(bag); h.Len != nil {
		t.Fatalf("Register must replace earlier hooks")
	}
	if r.Len() != 1 || r.Generation() != 2 {
		t.Fatalf("Len = %d, Generation = %d", r.Len(), r.Generation())
	}
}

func TestRegistryConcurrentLookup(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := types.TypeID(100 + i)
			r.Register(id, Hooks{})
			for n := 0; n < 100; n++ {
				if _, ok := r.Lookup(id); !ok {
					t.Errorf("lost registration of %d", id)
					return
				}
			}
		}()
	}
	wg.Wait()
	if r.Len() != 8 {
		t.Fatalf("Len = %d, want 8", r.Len())
	}
}
