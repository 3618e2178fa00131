package callsite

import "fmt"

// ContractViolation is the panic payload raised when a binder returns a rule
// whose guard rejects the very arguments it was bound for. It signals a bug
// in the binder, not a conversion failure.
type ContractViolation struct {
	Site   string
	Binder string
	Rule   string
	Args   string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("binder %s produced rule %q that does not accept %s at %s", e.Binder, e.Rule, e.Args, e.Site)
}

// Validate reports whether r's guard accepts args. The check runs r through
// a throwaway single-rule site, the same dispatch path real sites use.
func Validate[A, R any](r *Rule[A, R], args A) bool {
	_, ok := probe(r, args)
	return ok
}

// probe runs r on args once. ok is false when the guard rejected args; res
// is the action's result otherwise, so the action is never run twice.
func probe[A, R any](r *Rule[A, R], args A) (res Result[R], ok bool) {
	if r == nil || r.Guard == nil || r.Action == nil {
		return Result[R]{}, false
	}
	mm := &Site[A, R]{probe: true, capacity: 1}
	mm.snap.Store(buildSnapshot([]*Rule[A, R]{r}))
	res = mm.Call(args)
	return res, !mm.missed
}
