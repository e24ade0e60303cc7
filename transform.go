package morph

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Transform is a pure expression evaluated against a source value.
// Implementations hold configuration only; all per-evaluation state lives
// in the Scope and in the returned value.
type Transform interface {
	Eval(scope *Scope, source any) (any, error)
}

// Scope is the call-scoped environment threaded through one Apply.
type Scope struct {
	ctx   context.Context
	depth int
}

// NewScope returns a scope for a top-level evaluation.
func NewScope(ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Scope{ctx: ctx}
}

// Context returns the context of the current call.
func (s *Scope) Context() context.Context { return s.ctx }

// Depth returns how many mappings enclose the current evaluation.
func (s *Scope) Depth() int { return s.depth }

func (s *Scope) nested() *Scope {
	return &Scope{ctx: s.ctx, depth: s.depth + 1}
}

// Eval evaluates a single transform against source.
func Eval(ctx context.Context, t Transform, source any) (any, error) {
	return t.Eval(NewScope(ctx), source)
}

// TransformFunc adapts an ordinary function to Transform.
type TransformFunc func(scope *Scope, source any) (any, error)

// Eval implements Transform.
func (f TransformFunc) Eval(scope *Scope, source any) (any, error) {
	return f(scope, source)
}

// asTransform wraps non-transform values as constants.
func asTransform(v any) Transform {
	if t, ok := v.(Transform); ok {
		return t
	}
	return Const(v)
}

func asTransforms(vs []any) []Transform {
	out := make([]Transform, len(vs))
	for i, v := range vs {
		out[i] = asTransform(v)
	}
	return out
}

// checkAll runs declaration checks over a set of transforms.
func checkAll(ts ...Transform) error {
	for _, t := range ts {
		if t == nil {
			return definitionError("nil transform")
		}
		if c, ok := t.(checker); ok {
			if err := c.check(); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetNode reads a value at a path of the source.
type GetNode struct {
	path       string
	segments   []string
	def        any
	hasDefault bool
}

// Get returns a transform reading the dotted path from the source.
// The empty path reads the whole source.
func Get(path string) *GetNode {
	return &GetNode{path: path, segments: splitPath(path)}
}

// GetPath returns a transform reading explicit segments, for keys that
// themselves contain dots.
func GetPath(segments ...string) *GetNode {
	segs := make([]string, len(segments))
	copy(segs, segments)
	return &GetNode{path: strings.Join(segs, "."), segments: segs}
}

// Default returns a copy of g that yields v when a segment is absent.
func (g *GetNode) Default(v any) *GetNode {
	c := *g
	c.def = v
	c.hasDefault = true
	return &c
}

func (g *GetNode) check() error {
	for _, seg := range g.segments {
		if seg == "" {
			return definitionError("get %q: empty path segment", g.path)
		}
	}
	return nil
}

// Eval implements Transform.
func (g *GetNode) Eval(_ *Scope, source any) (any, error) {
	v, missing, ok := resolve(source, g.segments)
	if !ok {
		if g.hasDefault {
			return cloneValue(g.def), nil
		}
		return nil, newLookupError(g.path, missing)
	}
	return v, nil
}

type constNode struct {
	value any
}

// Const returns a transform yielding a fixed value. Mutable values are
// copied on every evaluation.
func Const(v any) Transform {
	return &constNode{value: v}
}

// Literal is an alias of Const.
func Literal(v any) Transform {
	return Const(v)
}

func (c *constNode) Eval(_ *Scope, _ any) (any, error) {
	return cloneValue(c.value), nil
}

// ConcatNode joins the string forms of its parts.
type ConcatNode struct {
	parts []Transform
	sep   string
}

// Concat returns a transform joining parts left to right. Parts that are
// not transforms are literals. If any part yields nil the result is nil.
func Concat(parts ...any) *ConcatNode {
	return &ConcatNode{parts: asTransforms(parts)}
}

// Sep returns a copy of c joining parts with sep.
func (c *ConcatNode) Sep(sep string) *ConcatNode {
	out := *c
	out.sep = sep
	return &out
}

func (c *ConcatNode) check() error {
	return checkAll(c.parts...)
}

// Eval implements Transform.
func (c *ConcatNode) Eval(scope *Scope, source any) (any, error) {
	strs := make([]string, len(c.parts))
	for i, p := range c.parts {
		v, err := p.Eval(scope, source)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		s, err := ToString(v)
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}
	return strings.Join(strs, c.sep), nil
}

// coerceNode converts the result of inner. Nil passes through.
type coerceNode struct {
	inner Transform
	fn    func(any) (any, error)
}

func (c *coerceNode) check() error {
	return checkAll(c.inner)
}

func (c *coerceNode) Eval(scope *Scope, source any) (any, error) {
	v, err := c.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	return c.fn(v)
}

// Str converts the result of inner to a string.
func Str(inner any) Transform {
	return &coerceNode{inner: asTransform(inner), fn: func(v any) (any, error) {
		return ToString(v)
	}}
}

// Int converts the result of inner to an int. Floats are truncated.
func Int(inner any) Transform {
	return &coerceNode{inner: asTransform(inner), fn: func(v any) (any, error) {
		n, err := ToInt(v)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	}}
}

// Num converts the result of inner to a float64.
func Num(inner any) Transform {
	return &coerceNode{inner: asTransform(inner), fn: func(v any) (any, error) {
		return ToFloat(v)
	}}
}

// Bool converts the result of inner to a bool.
func Bool(inner any) Transform {
	return &coerceNode{inner: asTransform(inner), fn: func(v any) (any, error) {
		return ToBool(v)
	}}
}

type doNode struct {
	fn   Func
	args []Transform
}

// Do returns a transform applying fn to the results of args. Arguments that
// are not transforms are literals. An error from fn is reported as a
// *CoercionError.
func Do(fn Func, args ...any) Transform {
	return &doNode{fn: fn, args: asTransforms(args)}
}

func (d *doNode) check() error {
	if d.fn == nil {
		return definitionError("do: nil function")
	}
	return checkAll(d.args...)
}

func (d *doNode) Eval(scope *Scope, source any) (any, error) {
	vals := make([]any, len(d.args))
	for i, a := range d.args {
		v, err := a.Eval(scope, source)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	out, err := d.fn(vals...)
	if err != nil {
		return nil, newCoercionError("function result", vals, err)
	}
	return out, nil
}

// Unary adapts a typed single-argument function to Func. The argument is
// converted to A when it is not already assignable.
func Unary[A, R any](fn func(A) R) Func {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		a, err := argAs[A](args[0])
		if err != nil {
			return nil, err
		}
		return fn(a), nil
	}
}

// UnaryE is like Unary for functions that can fail.
func UnaryE[A, R any](fn func(A) (R, error)) Func {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		a, err := argAs[A](args[0])
		if err != nil {
			return nil, err
		}
		return fn(a)
	}
}

// Unary2 adapts a typed two-argument function to Func.
func Unary2[A, B, R any](fn func(A, B) R) Func {
	return func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		a, err := argAs[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := argAs[B](args[1])
		if err != nil {
			return nil, err
		}
		return fn(a, b), nil
	}
}

func argAs[A any](v any) (A, error) {
	if a, ok := v.(A); ok {
		return a, nil
	}
	var zero A
	rv, err := convertTo(v, reflect.TypeFor[A]())
	if err != nil {
		return zero, err
	}
	a, _ := rv.Interface().(A)
	return a, nil
}

type chainNode struct {
	steps []Transform
}

// Chain returns a transform threading the source through each step in turn:
// every step receives the previous step's result as its source.
func Chain(steps ...Transform) Transform {
	return &chainNode{steps: steps}
}

func (c *chainNode) check() error {
	return checkAll(c.steps...)
}

func (c *chainNode) Eval(scope *Scope, source any) (any, error) {
	cur := source
	for _, step := range c.steps {
		v, err := step.Eval(scope, cur)
		if err != nil {
			return nil, err
		}
		cur = v
	}
	return cur, nil
}

type selfNode struct{}

// Self returns a transform yielding the source unchanged.
func Self() Transform { return selfNode{} }

func (selfNode) Eval(_ *Scope, source any) (any, error) { return source, nil }

type allNode struct {
	m *Mapping
}

// All returns a transform applying m to the whole source. A nil mapping
// yields the source itself.
func All(m *Mapping) Transform {
	return &allNode{m: m}
}

func (a *allNode) Eval(scope *Scope, source any) (any, error) {
	if a.m == nil {
		return source, nil
	}
	return a.m.apply(scope.nested(), source)
}

type submapNode struct {
	m        *Mapping
	path     string
	segments []string
	many     bool
}

// Submap returns a transform applying m to the value at path. An absent or
// nil value yields nil.
func Submap(m *Mapping, path string) Transform {
	return &submapNode{m: m, path: path, segments: splitPath(path)}
}

// ManySubmap returns a transform applying m to every element of the
// sequence at path. Nil elements stay nil; a single non-sequence value
// yields a one-element list; an absent or nil value yields nil.
func ManySubmap(m *Mapping, path string) Transform {
	return &submapNode{m: m, path: path, segments: splitPath(path), many: true}
}

func (s *submapNode) check() error {
	if s.m == nil {
		return definitionError("submap %q: nil mapping", s.path)
	}
	return nil
}

func (s *submapNode) Eval(scope *Scope, source any) (any, error) {
	v, _, ok := resolve(source, s.segments)
	if !ok || isNil(v) {
		return nil, nil
	}
	inner := scope.nested()
	if !s.many {
		return s.m.apply(inner, v)
	}

	if !isSequence(v) {
		inst, err := s.m.apply(inner, v)
		if err != nil {
			return nil, err
		}
		return []any{inst}, nil
	}
	items := elements(v)
	out := make([]any, len(items))
	for i, item := range items {
		if isNil(item) {
			continue
		}
		inst, err := s.m.apply(inner, item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = inst
	}
	return out, nil
}

type manyNode struct {
	parts   []Transform
	flatten bool
}

// Many returns a transform collecting the results of parts into a list.
func Many(parts ...any) Transform {
	return &manyNode{parts: asTransforms(parts)}
}

// Flatten returns a transform concatenating the results of parts: sequences
// contribute their elements, other values contribute themselves and nil
// results contribute nothing.
func Flatten(parts ...any) Transform {
	return &manyNode{parts: asTransforms(parts), flatten: true}
}

func (m *manyNode) check() error {
	return checkAll(m.parts...)
}

func (m *manyNode) Eval(scope *Scope, source any) (any, error) {
	out := make([]any, 0, len(m.parts))
	for _, p := range m.parts {
		v, err := p.Eval(scope, source)
		if err != nil {
			return nil, err
		}
		switch {
		case !m.flatten:
			out = append(out, v)
		case v == nil:
		case isSequence(v):
			out = append(out, elements(v)...)
		default:
			out = append(out, v)
		}
	}
	return out, nil
}

type eachNode struct {
	over Transform
	fn   Transform
}

// Each returns a transform evaluating fn with every element of the
// sequence produced by over as its source. A nil sequence yields nil.
func Each(over, fn Transform) Transform {
	return &eachNode{over: over, fn: fn}
}

func (e *eachNode) check() error {
	return checkAll(e.over, e.fn)
}

func (e *eachNode) Eval(scope *Scope, source any) (any, error) {
	v, err := e.over.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	if !isSequence(v) {
		return nil, newCoercionError("sequence", v, nil)
	}
	items := elements(v)
	out := make([]any, len(items))
	for i, item := range items {
		r, err := e.fn.Eval(scope, item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}
