// Package literal reads hosted values and type expressions from text.
//
// Values:
//
//	none  true  false  42  -7  0x1f  2.5  'c'  "text"  b"bytes"
//	i8:3  u16:7  f32:1.5  Name:"bob"      typed literals
//	(1, "a")  (1,)  ()  [1, 2]  {"k": 1}  tuple, list, dict
//	Color.Green                           enum member
//	ref(1)  Bag(3)                        constructors
//
// Types:
//
//	i32  string  object  List<u8>  Map<string, i64>  Seq<T>  Seq  Iter
//	ref<i64>  i64[]  i64[,]  Color  Name
package literal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"dynsite/internal/numeric"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

// Ctor builds a value from constructor arguments.
type Ctor func(args []object.Value) (object.Value, error)

// Env resolves names used in literals.
type Env struct {
	Types *types.Interner
	// Names maps user type names (enums, classes) to types.
	Names map[string]types.TypeID
	// Ctors maps constructor names to builders; "ref" is built in.
	Ctors map[string]Ctor
}

// SyntaxError reports malformed input.
type SyntaxError struct {
	Offset uint32
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// ErrUnknownName is wrapped by errors for unresolved identifiers.
var ErrUnknownName = errors.New("unknown name")

var builtinTypes = map[string]types.TypeID{
	"none":   types.NothingType,
	"bool":   types.BoolType,
	"char":   types.CharType,
	"string": types.StringType,
	"bytes":  types.BytesType,
	"i8":     types.Int8Type,
	"i16":    types.Int16Type,
	"i32":    types.Int32Type,
	"i64":    types.Int64Type,
	"int":    types.IntType,
	"u8":     types.Uint8Type,
	"u16":    types.Uint16Type,
	"u32":    types.Uint32Type,
	"u64":    types.Uint64Type,
	"uint":   types.UintType,
	"f32":    types.Float32Type,
	"f64":    types.Float64Type,
	"float":  types.FloatType,
	"tuple":  types.TupleType,
	"list":   types.ListType,
	"dict":   types.DictType,
	"object": types.ObjectType,
	"Seq":    types.SeqType,
	"Iter":   types.IterType,
}

type reader struct {
	env Env
	sc  *Scanner
}

// ReadValue parses a single value literal.
func ReadValue(env Env, src string) (object.Value, error) {
	r := &reader{env: env, sc: NewScanner(src)}
	v, err := r.value()
	if err != nil {
		return nil, err
	}
	if err := r.expect(EOF); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadValues parses a comma separated list of value literals.
func ReadValues(env Env, src string) ([]object.Value, error) {
	r := &reader{env: env, sc: NewScanner(src)}
	if r.sc.Peek().Kind == EOF {
		return nil, nil
	}
	vals, err := r.list(EOF)
	if err != nil {
		return nil, err
	}
	return vals, nil
}

// ReadType parses a type expression.
func ReadType(env Env, src string) (types.TypeID, error) {
	r := &reader{env: env, sc: NewScanner(src)}
	t, err := r.typ()
	if err != nil {
		return types.NoTypeID, err
	}
	if err := r.expect(EOF); err != nil {
		return types.NoTypeID, err
	}
	return t, nil
}

func (r *reader) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Offset: tok.Span.Start, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) unknown(tok Token, format string, args ...any) error {
	msg := ErrUnknownName.Error() + ": " + fmt.Sprintf(format, args...)
	return &SyntaxError{Offset: tok.Span.Start, Msg: msg, Err: ErrUnknownName}
}

func (r *reader) expect(k Kind) error {
	tok := r.sc.Next()
	if tok.Kind != k {
		return r.errorf(tok, "expected %s, got %s", k, describe(tok))
	}
	return nil
}

func describe(tok Token) string {
	if tok.Text == "" {
		return tok.Kind.String()
	}
	return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
}

// list reads values separated by commas up to close, allowing a trailing
// comma. The closing token is consumed.
func (r *reader) list(closing Kind) ([]object.Value, error) {
	var out []object.Value
	for {
		if r.sc.Peek().Kind == closing {
			r.sc.Next()
			return out, nil
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		tok := r.sc.Next()
		switch tok.Kind {
		case closing:
			return out, nil
		case Comma:
		default:
			return nil, r.errorf(tok, "expected ',' or %s, got %s", closing, describe(tok))
		}
	}
}

func (r *reader) value() (object.Value, error) {
	tok := r.sc.Next()
	switch tok.Kind {
	case IntLit, FloatLit:
		return number(tok, false)
	case Minus:
		num := r.sc.Next()
		if num.Kind != IntLit && num.Kind != FloatLit {
			return nil, r.errorf(num, "expected number after '-', got %s", describe(num))
		}
		return number(num, true)
	case StringLit:
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			return nil, r.errorf(tok, "bad string %s: %v", tok.Text, err)
		}
		return object.S(s), nil
	case BytesLit:
		s, err := strconv.Unquote(tok.Text[1:])
		if err != nil {
			return nil, r.errorf(tok, "bad bytes %s: %v", tok.Text, err)
		}
		return object.Bytes(s), nil
	case CharLit:
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			return nil, r.errorf(tok, "bad char %s: %v", tok.Text, err)
		}
		return object.Char([]rune(s)[0]), nil
	case LParen:
		return r.tuple()
	case LBracket:
		items, err := r.list(RBracket)
		if err != nil {
			return nil, err
		}
		return object.NewList(items...), nil
	case LBrace:
		return r.dict()
	case Ident:
		return r.named(tok)
	}
	return nil, r.errorf(tok, "unexpected %s", describe(tok))
}

func number(tok Token, neg bool) (object.Value, error) {
	text := tok.Text
	if neg {
		text = "-" + text
	}
	if tok.Kind == FloatLit {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.Span.Start, Msg: err.Error()}
		}
		return object.F64(f), nil
	}
	n, err := strconv.ParseInt(text, 0, 64)
	if err == nil {
		return object.I64(n), nil
	}
	if !neg {
		// too large for i64: only u64 can hold it
		if u, uerr := strconv.ParseUint(text, 0, 64); uerr == nil {
			return object.U64(u), nil
		}
	}
	return nil, &SyntaxError{Offset: tok.Span.Start, Msg: err.Error()}
}

func (r *reader) tuple() (object.Value, error) {
	if r.sc.Peek().Kind == RParen {
		r.sc.Next()
		return object.Tuple{}, nil
	}
	first, err := r.value()
	if err != nil {
		return nil, err
	}
	tok := r.sc.Next()
	switch tok.Kind {
	case RParen:
		return first, nil
	case Comma:
		rest, err := r.list(RParen)
		if err != nil {
			return nil, err
		}
		return append(object.Tuple{first}, rest...), nil
	}
	return nil, r.errorf(tok, "expected ',' or ')', got %s", describe(tok))
}

func (r *reader) dict() (object.Value, error) {
	d := object.NewDict()
	for {
		if r.sc.Peek().Kind == RBrace {
			r.sc.Next()
			return d, nil
		}
		k, err := r.value()
		if err != nil {
			return nil, err
		}
		if err := r.expect(Colon); err != nil {
			return nil, err
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		d.Set(k, v)
		tok := r.sc.Next()
		switch tok.Kind {
		case RBrace:
			return d, nil
		case Comma:
		default:
			return nil, r.errorf(tok, "expected ',' or '}', got %s", describe(tok))
		}
	}
}

// named handles keywords, typed literals, enum members and constructors.
func (r *reader) named(tok Token) (object.Value, error) {
	switch tok.Text {
	case "none":
		return object.None, nil
	case "true":
		return object.Bool(true), nil
	case "false":
		return object.Bool(false), nil
	}
	switch r.sc.Peek().Kind {
	case Colon:
		r.sc.Next()
		return r.typed(tok)
	case Dot:
		r.sc.Next()
		return r.member(tok)
	case LParen:
		r.sc.Next()
		return r.construct(tok)
	}
	return nil, r.unknown(tok, "%s", tok.Text)
}

func (r *reader) lookupType(tok Token) (types.TypeID, error) {
	if t, ok := builtinTypes[tok.Text]; ok {
		return t, nil
	}
	if t, ok := r.env.Names[tok.Text]; ok {
		return t, nil
	}
	return types.NoTypeID, r.unknown(tok, "type %s", tok.Text)
}

// typed reads "T:value": numerics are range checked, string-like classes
// wrap a string.
func (r *reader) typed(name Token) (object.Value, error) {
	in := r.env.Types
	t, err := r.lookupType(name)
	if err != nil {
		return nil, err
	}
	v, err := r.value()
	if err != nil {
		return nil, err
	}
	switch {
	case in.IsNumeric(t) || t == types.CharType:
		out, err := numeric.Convert(in, v, t)
		if err != nil {
			return nil, r.errorf(name, "%s:%s: %v", name.Text, object.Inspect(v), err)
		}
		return out, nil
	case in.IsStringLike(t):
		s, ok := v.(object.Str)
		if !ok {
			return nil, r.errorf(name, "%s needs a string, got %s", name.Text, object.Inspect(v))
		}
		return object.Str{T: t, S: s.S}, nil
	}
	return nil, r.errorf(name, "%s has no literal form", name.Text)
}

func (r *reader) member(enum Token) (object.Value, error) {
	t, err := r.lookupType(enum)
	if err != nil {
		return nil, err
	}
	info, ok := r.env.Types.EnumInfo(t)
	if !ok {
		return nil, r.errorf(enum, "%s is not an enum", enum.Text)
	}
	name := r.sc.Next()
	if name.Kind != Ident {
		return nil, r.errorf(name, "expected member name, got %s", describe(name))
	}
	variant, ok := info.VariantByName(name.Text)
	if !ok {
		return nil, r.unknown(name, "%s.%s", enum.Text, name.Text)
	}
	return object.EnumValue{T: t, V: variant.Value}, nil
}

func (r *reader) construct(name Token) (object.Value, error) {
	args, err := r.list(RParen)
	if err != nil {
		return nil, err
	}
	if name.Text == "ref" {
		if len(args) != 1 {
			return nil, r.errorf(name, "ref takes one argument, got %d", len(args))
		}
		in := r.env.Types
		elem := args[0].TypeID()
		return object.NewRef(in.Intern(types.MakeRef(elem)), args[0]), nil
	}
	ctor, ok := r.env.Ctors[name.Text]
	if !ok {
		return nil, r.unknown(name, "constructor %s", name.Text)
	}
	v, err := ctor(args)
	if err != nil {
		return nil, fmt.Errorf("%s(...): %w", name.Text, err)
	}
	return v, nil
}

func (r *reader) typ() (types.TypeID, error) {
	in := r.env.Types
	name := r.sc.Next()
	if name.Kind != Ident {
		return types.NoTypeID, r.errorf(name, "expected type name, got %s", describe(name))
	}
	var t types.TypeID
	if r.sc.Peek().Kind == Lt {
		r.sc.Next()
		args, err := r.typeArgs()
		if err != nil {
			return types.NoTypeID, err
		}
		t, err = r.generic(name, args)
		if err != nil {
			return types.NoTypeID, err
		}
	} else {
		var err error
		if t, err = r.lookupType(name); err != nil {
			return types.NoTypeID, err
		}
	}
	for r.sc.Peek().Kind == LBracket {
		r.sc.Next()
		rank := 1
		for r.sc.Peek().Kind == Comma {
			r.sc.Next()
			rank++
		}
		if err := r.expect(RBracket); err != nil {
			return types.NoTypeID, err
		}
		r8, err := safecast.Conv[uint8](rank)
		if err != nil {
			return types.NoTypeID, r.errorf(name, "array rank %d too large", rank)
		}
		t = in.Intern(types.MakeArray(t, r8))
	}
	return t, nil
}

func (r *reader) typeArgs() ([]types.TypeID, error) {
	var args []types.TypeID
	for {
		t, err := r.typ()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		tok := r.sc.Next()
		switch tok.Kind {
		case Gt:
			return args, nil
		case Comma:
		default:
			return nil, r.errorf(tok, "expected ',' or '>', got %s", describe(tok))
		}
	}
}

func (r *reader) generic(name Token, args []types.TypeID) (types.TypeID, error) {
	in := r.env.Types
	arity := map[string]int{"List": 1, "Seq": 1, "ref": 1, "Map": 2}
	want, ok := arity[name.Text]
	if !ok {
		return types.NoTypeID, r.unknown(name, "generic %s", name.Text)
	}
	if len(args) != want {
		return types.NoTypeID, r.errorf(name, "%s takes %d type arguments, got %d", name.Text, want, len(args))
	}
	switch name.Text {
	case "List":
		return in.Intern(types.MakeListOf(args[0])), nil
	case "Seq":
		return in.Intern(types.MakeSeqOf(args[0])), nil
	case "ref":
		return in.Intern(types.MakeRef(args[0])), nil
	default:
		return in.Intern(types.MakeMapOf(args[0], args[1])), nil
	}
}
