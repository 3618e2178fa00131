// Package action describes what a rule does once its guard has passed, and
// compiles those descriptions to executable closures.
package action

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/numeric"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// Stable failure codes - do not change values.
const (
	CodeBadCharLength callsite.Code = 2001 // CV2001: string is not exactly one character
	CodeInvalidEnum   callsite.Code = 2002 // CV2002: only zero converts to an enum
	CodeRefToBool     callsite.Code = 2003 // CV2003: reference cells have no truthiness
	CodeNoConversion  callsite.Code = 2004 // CV2004: no conversion exists
	CodeOverflow      callsite.Code = 2005 // CV2005: value out of range for the target
	CodeInvalidCast   callsite.Code = 2006 // CV2006: result does not fit the requested shape
)

// Op enumerates actions.
type Op uint8

const (
	OpIdentity     Op = iota + 1 // return the argument
	OpConst                      // return Value
	OpNotZero                    // Bool(v != 0)
	OpTruthHook                  // the type's truth hook
	OpLenNonZero                 // Bool(len(v) != 0)
	OpFirstRune                  // Char from a one-character string
	OpTupleToArray               // Type[] from a tuple, converting elements
	OpListView                   // List<T> view over an indexable value
	OpMapView                    // Map<K, V> view over a mapping
	OpSeqView                    // Seq<T> view over an iterable
	OpStringBytes                // Latin-1 bytes of a string
	OpStringUnits                // Seq of one-character strings
	OpIndexSeq                   // Seq over length and index hooks
	OpIndexIter                  // Iter over length and index hooks
	OpNumeric                    // range-checked numeric conversion to Type
	OpCharToString               // string of one char
	OpFail                       // Fail(Code, Message)
	OpCast                       // run Inner, then make the result fit Type
	OpTry                        // run Inner, failures become None
	OpFunc                       // run Fn verbatim
)

// Action is a data description of a rule body.
type Action struct {
	Op      Op
	Type    types.TypeID
	Value   object.Value
	Code    callsite.Code
	Message string
	Elem    object.ConvFunc
	Key     object.ConvFunc
	Inner   *Action
	Fn      func(object.Value) callsite.Result[object.Value]
	// Label names OpFunc actions in descriptions.
	Label string
}

// Env is what compiled actions consult at run time.
type Env struct {
	Types *types.Interner
	Hooks *capability.Registry
}

// Result is a conversion result.
type Result = callsite.Result[object.Value]

func Identity() Action                  { return Action{Op: OpIdentity} }
func Const(v object.Value) Action       { return Action{Op: OpConst, Value: v} }
func Numeric(to types.TypeID) Action    { return Action{Op: OpNumeric, Type: to} }
func Cast(to types.TypeID, inner Action) Action {
	return Action{Op: OpCast, Type: to, Inner: &inner}
}
func Try(inner Action) Action { return Action{Op: OpTry, Inner: &inner} }

// Fail describes a failing action.
func Fail(code callsite.Code, format string, args ...any) Action {
	return Action{Op: OpFail, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Func wraps an opaque body.
func Func(label string, fn func(object.Value) Result) Action {
	return Action{Op: OpFunc, Fn: fn, Label: label}
}

// Describe renders the action using type labels from in.
func (a Action) Describe(in *types.Interner) string {
	label := func() string { return types.Label(in, a.Type) }
	switch a.Op {
	case OpIdentity:
		return "identity"
	case OpConst:
		return "const " + object.Inspect(a.Value)
	case OpNotZero:
		return "!= 0"
	case OpTruthHook:
		return "truth-hook"
	case OpLenNonZero:
		return "len != 0"
	case OpFirstRune:
		return "first-char"
	case OpTupleToArray:
		return "tuple-to-" + label()
	case OpListView, OpMapView, OpSeqView:
		return "view " + label()
	case OpStringBytes:
		return "latin1-bytes"
	case OpStringUnits:
		return "string-units"
	case OpIndexSeq:
		return "index-seq"
	case OpIndexIter:
		return "index-iter"
	case OpNumeric:
		return "numeric " + label()
	case OpCharToString:
		return "char-to-string"
	case OpFail:
		return "fail " + a.Code.String()
	case OpCast:
		return "cast " + label() + " (" + a.Inner.Describe(in) + ")"
	case OpTry:
		return "try (" + a.Inner.Describe(in) + ")"
	case OpFunc:
		if a.Label != "" {
			return a.Label
		}
		return "func"
	}
	return "?"
}

// FailureOf maps an error to a failure, defaulting to code.
func FailureOf(err error, code callsite.Code) *callsite.Failure {
	var f *callsite.Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, numeric.ErrOverflow) {
		code = CodeOverflow
	}
	return &callsite.Failure{Code: code, Message: err.Error()}
}

// Compile turns the description into the rule body.
func (a Action) Compile(env Env) func(object.Value) Result {
	in := env.Types
	switch a.Op {
	case OpIdentity:
		return func(v object.Value) Result { return callsite.Succeed(v) }
	case OpConst:
		c := a.Value
		return func(object.Value) Result { return callsite.Succeed(c) }
	case OpNotZero:
		return func(v object.Value) Result {
			zero, ok := object.IsZero(v)
			if !ok {
				return callsite.Fail[object.Value](CodeInvalidCast, "%s is not numeric", types.Label(in, v.TypeID()))
			}
			return callsite.Succeed[object.Value](object.Bool(!zero))
		}
	case OpTruthHook:
		return func(v object.Value) Result {
			h, ok := env.Hooks.Lookup(v.TypeID())
			if !ok || h.Truth == nil {
				return callsite.Fail[object.Value](CodeNoConversion, "%s lost its truth hook", types.Label(in, v.TypeID()))
			}
			b, err := h.Truth(v)
			if err != nil {
				return callsite.FailWith[object.Value](FailureOf(err, CodeNoConversion))
			}
			return callsite.Succeed[object.Value](object.Bool(b))
		}
	case OpLenNonZero:
		return func(v object.Value) Result {
			n, err := lengthOf(env, v)
			if err != nil {
				return callsite.FailWith[object.Value](FailureOf(err, CodeNoConversion))
			}
			return callsite.Succeed[object.Value](object.Bool(n != 0))
		}
	case OpFirstRune:
		return func(v object.Value) Result {
			s, ok := v.(object.Str)
			if !ok || utf8.RuneCountInString(s.S) != 1 {
				return callsite.Fail[object.Value](CodeBadCharLength, "expected string of length 1 when converting to char, got %s", object.Inspect(v))
			}
			r, _ := utf8.DecodeRuneInString(s.S)
			return callsite.Succeed[object.Value](object.Char(r))
		}
	case OpTupleToArray:
		return a.compileTupleToArray(in)
	case OpListView, OpMapView, OpSeqView:
		return a.compileView(in)
	case OpStringBytes:
		return func(v object.Value) Result {
			s, ok := v.(object.Str)
			if !ok {
				return callsite.Fail[object.Value](CodeInvalidCast, "%s is not a string", types.Label(in, v.TypeID()))
			}
			b, err := object.EncodeLatin1(s.S)
			if err != nil {
				return callsite.FailWith[object.Value](FailureOf(err, CodeNoConversion))
			}
			return callsite.Succeed[object.Value](b)
		}
	case OpStringUnits:
		return func(v object.Value) Result {
			s, ok := v.(object.Str)
			if !ok {
				return callsite.Fail[object.Value](CodeInvalidCast, "%s is not a string", types.Label(in, v.TypeID()))
			}
			return callsite.Succeed[object.Value](object.StringUnits{S: s.S})
		}
	case OpIndexSeq, OpIndexIter:
		iter := a.Op == OpIndexIter
		return func(v object.Value) Result {
			funcs, ok := indexFuncs(env, v.TypeID())
			if !ok {
				return callsite.Fail[object.Value](CodeNoConversion, "%s lost its index hooks", types.Label(in, v.TypeID()))
			}
			if iter {
				return callsite.Succeed[object.Value](&object.IndexIter{Src: v, Funcs: funcs})
			}
			return callsite.Succeed[object.Value](object.IndexSeq{Src: v, Funcs: funcs})
		}
	case OpNumeric:
		to := a.Type
		return func(v object.Value) Result {
			out, err := numeric.Convert(in, v, to)
			if err != nil {
				return callsite.FailWith[object.Value](FailureOf(err, CodeNoConversion))
			}
			return callsite.Succeed(out)
		}
	case OpCharToString:
		return func(v object.Value) Result {
			c, ok := v.(object.Char)
			if !ok {
				return callsite.Fail[object.Value](CodeInvalidCast, "%s is not a char", types.Label(in, v.TypeID()))
			}
			return callsite.Succeed[object.Value](object.S(string(rune(c))))
		}
	case OpFail:
		f := &callsite.Failure{Code: a.Code, Message: a.Message}
		return func(object.Value) Result { return callsite.FailWith[object.Value](f) }
	case OpCast:
		return a.compileCast(env)
	case OpTry:
		inner := a.Inner.Compile(env)
		return func(v object.Value) Result {
			res := inner(v)
			if !res.Ok() {
				return callsite.Succeed(object.None)
			}
			return res
		}
	case OpFunc:
		if a.Fn != nil {
			return a.Fn
		}
	}
	op := a.Op
	return func(object.Value) Result {
		return callsite.Fail[object.Value](CodeNoConversion, "unknown action %d", op)
	}
}

func (a Action) compileTupleToArray(in *types.Interner) func(object.Value) Result {
	to, conv := a.Type, a.Elem
	return func(v object.Value) Result {
		tup, ok := v.(object.Tuple)
		if !ok {
			return callsite.Fail[object.Value](CodeInvalidCast, "%s is not a tuple", types.Label(in, v.TypeID()))
		}
		elems := make([]object.Value, len(tup))
		for i, e := range tup {
			ce, err := conv(e)
			if err != nil {
				return callsite.FailWith[object.Value](FailureOf(err, CodeNoConversion))
			}
			elems[i] = ce
		}
		return callsite.Succeed[object.Value](&object.Array{T: to, Elems: elems})
	}
}

func (a Action) compileView(in *types.Interner) func(object.Value) Result {
	op, to, elem, key := a.Op, a.Type, a.Elem, a.Key
	return func(v object.Value) Result {
		switch op {
		case OpListView:
			if src, ok := v.(object.Indexable); ok {
				return callsite.Succeed[object.Value](&object.ListView{T: to, Src: src, Conv: elem})
			}
		case OpMapView:
			if src, ok := v.(object.Mapping); ok {
				return callsite.Succeed[object.Value](&object.MapView{T: to, Src: src, KeyConv: key, ValConv: elem})
			}
		case OpSeqView:
			if src, ok := v.(object.Iterable); ok {
				return callsite.Succeed[object.Value](&object.SeqView{T: to, Src: src, Conv: elem})
			}
		}
		return callsite.Fail[object.Value](CodeInvalidCast, "%s cannot be viewed as %s", types.Label(in, v.TypeID()), types.Label(in, to))
	}
}

// compileCast makes results fit Type: assignable values and None for
// reference-kinded targets pass, numerics are converted, anything else fails.
func (a Action) compileCast(env Env) func(object.Value) Result {
	in, to := env.Types, a.Type
	inner := a.Inner.Compile(env)
	refTarget := in.IsReferenceKind(to)
	numTarget := in.IsNumeric(to)
	return func(v object.Value) Result {
		res := inner(v)
		if !res.Ok() {
			return res
		}
		out := res.Value()
		switch {
		case object.IsNone(out):
			if refTarget {
				return callsite.Succeed(object.None)
			}
		case in.Assignable(out.TypeID(), to):
			return res
		case numTarget:
			conv, err := numeric.Convert(in, out, to)
			if err == nil {
				return callsite.Succeed(conv)
			}
			return callsite.FailWith[object.Value](FailureOf(err, CodeInvalidCast))
		}
		return callsite.Fail[object.Value](CodeInvalidCast, "cannot cast %s to %s", object.Describe(in, out), types.Label(in, to))
	}
}

// lengthOf prefers the registered length hook over the built-in size.
func lengthOf(env Env, v object.Value) (int, error) {
	if h, ok := env.Hooks.Lookup(v.TypeID()); ok && h.Len != nil {
		return h.Len(v)
	}
	if s, ok := v.(object.Sized); ok {
		return s.Len(), nil
	}
	return 0, &callsite.Failure{Code: CodeNoConversion, Message: types.Label(env.Types, v.TypeID()) + " has no length"}
}

func indexFuncs(env Env, t types.TypeID) (object.IndexFuncs, bool) {
	h, ok := env.Hooks.Lookup(t)
	if !ok || h.Len == nil || h.Index == nil {
		return object.IndexFuncs{}, false
	}
	return object.IndexFuncs{Len: h.Len, Index: h.Index}, true
}
