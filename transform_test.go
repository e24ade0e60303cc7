package morph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func eval(t *testing.T, tr Transform, source any) any {
	t.Helper()
	if err := checkAll(tr); err != nil {
		t.Fatalf("check() error: %v", err)
	}
	v, err := Eval(context.Background(), tr, source)
	if err != nil {
		t.Fatalf("Eval() error: %v", err)
	}
	return v
}

func TestGet(t *testing.T) {
	src := map[string]any{
		"name": "peggy",
		"size": map[string]any{"width": 50},
		"tags": []any{"a", "b", "c"},
		"nil":  nil,
	}

	tests := []struct {
		name string
		tr   Transform
		want any
	}{
		{"top level", Get("name"), "peggy"},
		{"dotted", Get("size.width"), 50},
		{"index", Get("tags.1"), "b"},
		{"negative index", Get("tags.-1"), "c"},
		{"explicit nil", Get("nil"), nil},
		{"whole source", Get(""), src},
		{"path segments", GetPath("size", "width"), 50},
		{"default", Get("missing").Default("fallback"), "fallback"},
		{"default on nested miss", Get("size.height").Default(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, tt.tr, src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Eval() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet_Missing(t *testing.T) {
	_, err := Eval(context.Background(), Get("size.height"), map[string]any{"size": map[string]any{}})

	var lerr *LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("Eval() error = %v, want *LookupError", err)
	}
	if lerr.Path != "size.height" || lerr.Segment != "height" {
		t.Errorf("LookupError = %+v", lerr)
	}
	if !errors.Is(err, ErrLookup) {
		t.Error("error should match ErrLookup")
	}
}

func TestGet_DefaultIsCopied(t *testing.T) {
	g := Get("tags").Default([]any{"x"})

	first := eval(t, g, map[string]any{}).([]any)
	first[0] = "mutated"

	second := eval(t, g, map[string]any{}).([]any)
	if second[0] != "x" {
		t.Errorf("default shared between evaluations: %v", second)
	}
}

func TestGet_DefaultDoesNotModifyOriginal(t *testing.T) {
	g := Get("a")
	_ = g.Default(1)
	if _, err := Eval(context.Background(), g, map[string]any{}); err == nil {
		t.Error("Default() should return a copy and leave the original strict")
	}
}

func TestConst_IsCopied(t *testing.T) {
	c := Const(map[string]any{"k": "v"})

	first := eval(t, c, nil).(map[string]any)
	first["k"] = "changed"

	second := eval(t, c, nil).(map[string]any)
	if second["k"] != "v" {
		t.Errorf("literal shared between evaluations: %v", second)
	}
}

func TestConcat(t *testing.T) {
	src := map[string]any{"first": "Ada", "last": "Lovelace", "n": 3, "none": nil}

	if got := eval(t, Concat(Get("first"), " ", Get("last")), src); got != "Ada Lovelace" {
		t.Errorf("Concat() = %v", got)
	}
	if got := eval(t, Concat(Get("first"), Get("last")).Sep("-"), src); got != "Ada-Lovelace" {
		t.Errorf("Concat().Sep() = %v", got)
	}
	if got := eval(t, Concat("n=", Get("n")), src); got != "n=3" {
		t.Errorf("Concat() with number = %v", got)
	}
	if got := eval(t, Concat(Get("first"), Get("none")), src); got != nil {
		t.Errorf("Concat() with nil part = %v, want nil", got)
	}
}

func TestCoercionWrappers(t *testing.T) {
	src := map[string]any{"s": "42", "f": 2.9, "b": "true", "none": nil}

	tests := []struct {
		name string
		tr   Transform
		want any
	}{
		{"Str", Str(Get("f")), "2.9"},
		{"Int from string", Int(Get("s")), 42},
		{"Int truncates", Int(Get("f")), 2},
		{"Num", Num(Get("s")), 42.0},
		{"Bool", Bool(Get("b")), true},
		{"Str nil", Str(Get("none")), nil},
		{"Int nil", Int(Get("none")), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, eval(t, tt.tr, src)); diff != "" {
				t.Errorf("Eval() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := Eval(context.Background(), Int(Const("abc")), nil); !errors.Is(err, ErrCoercion) {
		t.Errorf("Int(\"abc\") error = %v, want ErrCoercion", err)
	}
}

func TestDo(t *testing.T) {
	add := Unary2(func(a, b int) int { return a + b })
	if got := eval(t, Do(add, Get("a"), 10), map[string]any{"a": 5}); got != 15 {
		t.Errorf("Do(add) = %v, want 15", got)
	}

	upper := Unary(strings.ToUpper)
	if got := eval(t, Do(upper, Get("s")), map[string]any{"s": "abc"}); got != "ABC" {
		t.Errorf("Do(upper) = %v, want ABC", got)
	}

	fail := UnaryE(func(s string) (string, error) { return "", errors.New("boom") })
	_, err := Eval(context.Background(), Do(fail, "x"), nil)
	var cerr *CoercionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Do(fail) error = %v, want *CoercionError", err)
	}
	if cerr.Target != "function result" {
		t.Errorf("Target = %q", cerr.Target)
	}
	if cerr.Cause == nil || cerr.Cause.Error() != "boom" {
		t.Errorf("Cause = %v, want boom", cerr.Cause)
	}
}

func TestUnary_ArgumentConversion(t *testing.T) {
	half := Unary(func(f float64) float64 { return f / 2 })
	if got, err := half(7); err != nil || got != 3.5 {
		t.Errorf("half(7) = %v, %v", got, err)
	}

	double := Unary(func(n int) int { return n * 2 })
	if _, err := double(1.5); !errors.Is(err, ErrCoercion) {
		t.Errorf("double(1.5) error = %v, want ErrCoercion", err)
	}
	if got, err := double(2.0); err != nil || got != 4 {
		t.Errorf("double(2.0) = %v, %v", got, err)
	}
	if _, err := double(1, 2); err == nil {
		t.Error("double(1, 2) should fail on arity")
	}

	small := Unary(func(n int8) int8 { return n })
	if got, err := small(100); err != nil || got != int8(100) {
		t.Errorf("small(100) = %v, %v", got, err)
	}
	for _, in := range []any{300, -129, 200.0} {
		if _, err := small(in); !errors.Is(err, ErrCoercion) {
			t.Errorf("small(%v) error = %v, want ErrCoercion", in, err)
		}
	}
}

func TestChain(t *testing.T) {
	tr := Chain(Get("user"), Get("profile"), Get("name"))
	src := map[string]any{"user": map[string]any{"profile": map[string]any{"name": "Ada"}}}
	if got := eval(t, tr, src); got != "Ada" {
		t.Errorf("Chain() = %v, want Ada", got)
	}
}

func TestSelf(t *testing.T) {
	src := map[string]any{"a": 1}
	if diff := cmp.Diff(src, eval(t, Self(), src)); diff != "" {
		t.Errorf("Self() mismatch (-want +got):\n%s", diff)
	}
}

func TestAll(t *testing.T) {
	inner := Map("Inner").Field("doubled", Do(Unary(func(n int) int { return n * 2 }), Get("n"))).MustBuild()

	got := eval(t, All(inner), map[string]any{"n": 4})
	inst, ok := got.(*Instance)
	if !ok {
		t.Fatalf("All() = %T, want *Instance", got)
	}
	if v, _ := inst.Get("doubled"); v != 8 {
		t.Errorf("doubled = %v, want 8", v)
	}

	src := map[string]any{"n": 4}
	if diff := cmp.Diff(src, eval(t, All(nil), src)); diff != "" {
		t.Errorf("All(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmap(t *testing.T) {
	inner := Map("Inner").Field("v", Get("v")).MustBuild()

	got := eval(t, Submap(inner, "child"), map[string]any{"child": map[string]any{"v": 1}})
	inst, ok := got.(*Instance)
	if !ok {
		t.Fatalf("Submap() = %T, want *Instance", got)
	}
	if v, _ := inst.Get("v"); v != 1 {
		t.Errorf("v = %v, want 1", v)
	}

	if got := eval(t, Submap(inner, "child"), map[string]any{}); got != nil {
		t.Errorf("Submap() on missing path = %v, want nil", got)
	}
	if got := eval(t, Submap(inner, "child"), map[string]any{"child": nil}); got != nil {
		t.Errorf("Submap() on nil = %v, want nil", got)
	}
}

func TestManySubmap_SingleValue(t *testing.T) {
	inner := Map("Inner").Field("v", Get("v")).MustBuild()

	got := eval(t, ManySubmap(inner, "child"), map[string]any{"child": map[string]any{"v": 1}})
	list, ok := got.([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("ManySubmap() on single value = %v, want one-element list", got)
	}
}

func TestManySubmap_ElementError(t *testing.T) {
	inner := Map("Inner").Field("v", Get("v")).MustBuild()

	_, err := Eval(context.Background(), ManySubmap(inner, "items"), map[string]any{
		"items": []any{map[string]any{"v": 1}, map[string]any{}},
	})
	if !errors.Is(err, ErrLookup) {
		t.Fatalf("error = %v, want ErrLookup", err)
	}
	if !strings.HasPrefix(err.Error(), "[1]: ") {
		t.Errorf("error = %q, want [1] prefix", err.Error())
	}
}

func TestMany(t *testing.T) {
	src := map[string]any{"a": 1, "b": []any{2, 3}, "none": nil}

	got := eval(t, Many(Get("a"), Get("b"), Get("none")), src)
	if diff := cmp.Diff([]any{1, []any{2, 3}, nil}, got); diff != "" {
		t.Errorf("Many() mismatch (-want +got):\n%s", diff)
	}

	got = eval(t, Flatten(Get("a"), Get("b"), Get("none"), "x"), src)
	if diff := cmp.Diff([]any{1, 2, 3, "x"}, got); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestEach(t *testing.T) {
	src := map[string]any{"people": []any{
		map[string]any{"name": "ada"},
		map[string]any{"name": "grace"},
	}}

	got := eval(t, Each(Get("people"), Do(Unary(strings.ToUpper), Get("name"))), src)
	if diff := cmp.Diff([]any{"ADA", "GRACE"}, got); diff != "" {
		t.Errorf("Each() mismatch (-want +got):\n%s", diff)
	}

	if got := eval(t, Each(Get("none").Default(nil), Self()), src); got != nil {
		t.Errorf("Each() over nil = %v, want nil", got)
	}
	if _, err := Eval(context.Background(), Each(Const(5), Self()), nil); !errors.Is(err, ErrCoercion) {
		t.Errorf("Each() over scalar error = %v, want ErrCoercion", err)
	}
}

func TestTransformFunc(t *testing.T) {
	depth := TransformFunc(func(scope *Scope, _ any) (any, error) {
		return scope.Depth(), nil
	})
	inner := Map("Inner").Field("depth", depth).MustBuild()
	outer := Map("Outer").
		Field("depth", depth).
		Field("inner", Submap(inner, "")).
		MustBuild()

	inst, err := outer.Apply(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if v, _ := inst.Get("depth"); v != 0 {
		t.Errorf("outer depth = %v, want 0", v)
	}
	nested, _ := inst.Get("inner")
	if v, _ := nested.(*Instance).Get("depth"); v != 1 {
		t.Errorf("inner depth = %v, want 1", v)
	}
}

func TestScope_Context(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	tr := TransformFunc(func(scope *Scope, _ any) (any, error) {
		return scope.Context().Value(key{}), nil
	})
	got, err := Eval(ctx, tr, nil)
	if err != nil || got != "v" {
		t.Errorf("Eval() = %v, %v; want context value", got, err)
	}

	var nilCtx context.Context
	if NewScope(nilCtx).Context() == nil {
		t.Error("NewScope(nil) should fall back to context.Background()")
	}
}
