package callsite

import "fmt"

// Code identifies a failure kind. Values are stable and printed as "CV2001".
type Code int

// String returns the code as "CV2001" format.
func (c Code) String() string {
	return fmt.Sprintf("CV%d", int(c))
}

// Failure is the payload of a failed Result. It is an error so callers can
// return it unchanged.
type Failure struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Is matches failures by code so errors.Is works against a template.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Code == f.Code && (t.Message == "" || t.Message == f.Message)
}

// Result is the outcome of a rule action: a value or a failure.
type Result[R any] struct {
	value R
	fail  *Failure
}

// Succeed wraps v.
func Succeed[R any](v R) Result[R] {
	return Result[R]{value: v}
}

// Fail builds a failed result.
func Fail[R any](code Code, format string, args ...any) Result[R] {
	return Result[R]{fail: &Failure{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// FailWith wraps an existing failure. A nil failure yields a zero success.
func FailWith[R any](f *Failure) Result[R] {
	return Result[R]{fail: f}
}

// Ok reports success.
func (r Result[R]) Ok() bool { return r.fail == nil }

// Value returns the success payload (zero on failure).
func (r Result[R]) Value() R { return r.value }

// Failure returns the failure payload, or nil.
func (r Result[R]) Failure() *Failure { return r.fail }

// Unwrap converts the result to Go's value, error pair.
func (r Result[R]) Unwrap() (R, error) {
	if r.fail != nil {
		var zero R
		return zero, r.fail
	}
	return r.value, nil
}
