package action_test

import (
	"errors"
	"fmt"
	"testing"

	"dynsite/internal/action"
	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/numeric"
	"dynsite/internal/object"
	"dynsite/internal/types"
)

func newEnv() action.Env {
	return action.Env{Types: types.NewInterner(), Hooks: capability.NewRegistry()}
}

func run(t *testing.T, env action.Env, a action.Action, v object.Value) callsite.Result[object.Value] {
	t.Helper()
	return a.Compile(env)(v)
}

func TestFirstRune(t *testing.T) {
	env := newEnv()
	a := action.Action{Op: action.OpFirstRune}
	res := run(t, env, a, object.S("é"))
	if !res.Ok() || res.Value() != object.Char('é') {
		t.Fatalf("first-char of \"é\" = %v", res)
	}
	res = run(t, env, a, object.S("ab"))
	if res.Ok() || res.Failure().Code != action.CodeBadCharLength {
		t.Fatalf("expected %s, got %v", action.CodeBadCharLength, res)
	}
}

func TestNumericOverflowCode(t *testing.T) {
	env := newEnv()
	res := run(t, env, action.Numeric(types.Int8Type), object.I64(300))
	if res.Ok() {
		t.Fatalf("300 fits no i8")
	}
	if res.Failure().Code != action.CodeOverflow {
		t.Fatalf("code = %s, want %s", res.Failure().Code, action.CodeOverflow)
	}
	res = run(t, env, action.Numeric(types.Int8Type), object.I64(-3))
	if !res.Ok() || res.Value() != object.I8(-3) {
		t.Fatalf("-3 -> i8 = %v", res)
	}
}

func TestTryTurnsFailuresIntoNone(t *testing.T) {
	env := newEnv()
	a := action.Try(action.Fail(action.CodeNoConversion, "nope"))
	res := run(t, env, a, object.I64(1))
	if !res.Ok() || !object.IsNone(res.Value()) {
		t.Fatalf("try(fail) = %v, want none", res)
	}
	res = run(t, env, action.Try(action.Identity()), object.I64(1))
	if !res.Ok() || res.Value() != object.I64(1) {
		t.Fatalf("try(identity) = %v", res)
	}
}

func TestCastFitsShape(t *testing.T) {
	env := newEnv()
	tests := []struct {
		name  string
		to    types.TypeID
		inner action.Action
		in    object.Value
		want  object.Value
		code  callsite.Code
	}{
		{"assignable", types.Int64Type, action.Identity(), object.I64(4), object.I64(4), 0},
		{"numeric", types.Int64Type, action.Const(object.I8(4)), object.None, object.I64(4), 0},
		{"none to string", types.StringType, action.Const(object.None), object.None, object.None, 0},
		{"none to int", types.Int64Type, action.Const(object.None), object.None, nil, action.CodeInvalidCast},
		{"string to int", types.Int64Type, action.Const(object.S("x")), object.None, nil, action.CodeInvalidCast},
		{"inner failure", types.Int64Type, action.Fail(action.CodeRefToBool, "ref"), object.None, nil, action.CodeRefToBool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, env, action.Cast(tt.to, tt.inner), tt.in)
			if tt.code != 0 {
				if res.Ok() || res.Failure().Code != tt.code {
					t.Fatalf("expected %s, got %v", tt.code, res)
				}
				return
			}
			if !res.Ok() || !object.Equal(res.Value(), tt.want) {
				t.Fatalf("got %v, want %s", res, object.Inspect(tt.want))
			}
		})
	}
}

func TestHooksAreConsultedAtRunTime(t *testing.T) {
	env := newEnv()
	box := env.Types.RegisterClass("Box", types.NoTypeID)
	v := object.NewInstance(box, map[string]object.Value{"n": object.I64(0)})

	lenAction := action.Action{Op: action.OpLenNonZero}
	if res := run(t, env, lenAction, v); res.Ok() {
		t.Fatalf("a class without hooks has no length")
	}
	env.Hooks.Register(box, capability.Hooks{
		Len: func(v object.Value) (int, error) {
			n, _ := v.(*object.Instance).Attr("n").(object.Int)
			return int(n.V), nil
		},
		Truth: func(object.Value) (bool, error) { return false, errors.New("broken") },
	})
	res := run(t, env, lenAction, v)
	if !res.Ok() || res.Value() != object.Bool(false) {
		t.Fatalf("len != 0 of an empty box = %v", res)
	}
	res = run(t, env, action.Action{Op: action.OpTruthHook}, v)
	if res.Ok() || res.Failure().Code != action.CodeNoConversion {
		t.Fatalf("a failing truth hook must fail the conversion, got %v", res)
	}
}

func TestFailureOf(t *testing.T) {
	f := &callsite.Failure{Code: action.CodeInvalidEnum, Message: "enum"}
	if got := action.FailureOf(fmt.Errorf("wrapped: %w", f), action.CodeNoConversion); got != f {
		t.Fatalf("a wrapped failure must be returned as is, got %v", got)
	}
	if got := action.FailureOf(fmt.Errorf("x: %w", numeric.ErrOverflow), action.CodeNoConversion); got.Code != action.CodeOverflow {
		t.Fatalf("overflow code = %s", got.Code)
	}
	if got := action.FailureOf(errors.New("plain"), action.CodeInvalidCast); got.Code != action.CodeInvalidCast || got.Message != "plain" {
		t.Fatalf("unexpected failure %v", got)
	}
}

func TestDescribe(t *testing.T) {
	in := types.NewInterner()
	tests := []struct {
		a    action.Action
		want string
	}{
		{action.Identity(), "identity"},
		{action.Const(object.Bool(false)), "const false"},
		{action.Numeric(types.Int8Type), "numeric i8"},
		{action.Fail(action.CodeInvalidEnum, "x"), "fail CV2002"},
		{action.Try(action.Cast(types.Int64Type, action.Identity())), "try (cast i64 (identity))"},
		{action.Func("temp-hook", nil), "temp-hook"},
	}
	for _, tt := range tests {
		if got := tt.a.Describe(in); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}
