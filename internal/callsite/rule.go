package callsite

import "dynsite/internal/types"

// Rule pairs a guard with the action it licenses. Rules are immutable once
// published and may be shared by any number of sites.
type Rule[A, R any] struct {
	// Guard must be side-effect free; when it returns true Action is valid
	// for args.
	Guard  func(A) bool
	Action func(A) Result[R]
	// Shape is the static type of successful results.
	Shape types.TypeID
	// Key fingerprints the guard. Rules with equal non-zero keys test the
	// same condition and replace each other in caches.
	Key  uint64
	Desc string
}

// NewRule builds a rule.
func NewRule[A, R any](guard func(A) bool, action func(A) Result[R], shape types.TypeID, key uint64, desc string) *Rule[A, R] {
	return &Rule[A, R]{
		Guard:  guard,
		Action: action,
		Shape:  shape,
		Key:    key,
		Desc:   desc,
	}
}

func (r *Rule[A, R]) String() string {
	if r == nil {
		return "<nil rule>"
	}
	return r.Desc
}

// sameRule reports whether b supersedes a in a rule list.
func sameRule[A, R any](a, b *Rule[A, R]) bool {
	return a == b || (a.Key != 0 && a.Key == b.Key)
}

// Binder produces rules for argument tuples the caches could not serve.
// Bind must be total: it returns a rule whose guard accepts args, encoding
// failures inside the action rather than returning nil.
type Binder[A, R any] interface {
	Bind(args A) *Rule[A, R]
	// RuleCache returns the binder's shared cache, or nil for none.
	RuleCache() *RuleCache[A, R]
}
