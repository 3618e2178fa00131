// Package capability holds what the runtime knows about types beyond their
// descriptors: per-type hooks for truthiness, length, indexing and
// self-described conversion, plus the interop and fallback seams the
// conversion binder consults.
package capability

import (
	"fmt"
	"sync"

	"dynsite/internal/callsite"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// Kind is the conversion mode.
type Kind uint8

const (
	ImplicitCast Kind = iota
	ExplicitCast
	ImplicitTry
	ExplicitTry
)

func (k Kind) String() string {
	switch k {
	case ImplicitCast:
		return "implicit"
	case ExplicitCast:
		return "explicit"
	case ImplicitTry:
		return "implicit-try"
	case ExplicitTry:
		return "explicit-try"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind converts a string to Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "implicit", "":
		return ImplicitCast, nil
	case "explicit":
		return ExplicitCast, nil
	case "implicit-try":
		return ImplicitTry, nil
	case "explicit-try", "try":
		return ExplicitTry, nil
	default:
		return ImplicitCast, fmt.Errorf("invalid conversion kind: %q (expected: implicit|explicit|implicit-try|explicit-try)", s)
	}
}

// Explicit reports whether narrowing conversions are allowed.
func (k Kind) Explicit() bool { return k == ExplicitCast || k == ExplicitTry }

// IsTry reports whether a failed conversion yields None instead of a failure.
func (k Kind) IsTry() bool { return k == ImplicitTry || k == ExplicitTry }

// Request is what a conversion is asked to produce.
type Request struct {
	Target types.TypeID
	Kind   Kind
	// Box asks for results typed as object regardless of Target.
	Box bool
}

// Rule is a conversion rule.
type Rule = callsite.Rule[object.Value, object.Value]

// Hooks are the capabilities a type declares. Any field may be nil.
type Hooks struct {
	// Truth decides truthiness; it wins over Len.
	Truth func(object.Value) (bool, error)
	// Len reports the element count.
	Len func(object.Value) (int, error)
	// Index returns the element at a position.
	Index func(object.Value, int) (object.Value, error)
	// Convert lets a type describe its own conversions. A non-nil rule is
	// used verbatim; nil defers to the standard algorithm.
	Convert func(Request, object.Value) *Rule
}

// Interop converts values owned by a foreign runtime. A nil rule means the
// foreign runtime declined.
type Interop interface {
	TryConvert(req Request, v object.Value) *Rule
}

// Fallback is the platform's own conversion. It must always return a rule
// whose guard accepts v.
type Fallback interface {
	ConvertTo(req Request, v object.Value) *Rule
}

// Registry maps types to hooks. Hooks must be registered before values of
// the type flow through call sites: rules bound earlier are not revisited.
type Registry struct {
	mu    sync.RWMutex
	hooks map[types.TypeID]Hooks
	gen   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[types.TypeID]Hooks)}
}

// Register replaces the hooks of t.
func (r *Registry) Register(t types.TypeID, h Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[t] = h
	r.gen++
}

// Lookup returns the hooks of t.
func (r *Registry) Lookup(t types.TypeID) (Hooks, bool) {
	if r == nil {
		return Hooks{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[t]
	return h, ok
}

// Generation counts registrations. Binders compare it across binds to
// detect hooks registered after rules were cached.
func (r *Registry) Generation() uint64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// Len returns the number of types with hooks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}
