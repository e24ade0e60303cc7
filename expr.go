package morph

import (
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// exprEnv is the shared CEL environment. It declares a single dynamic
// variable, source.
var exprEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("source", cel.DynType))
})

var (
	listType = reflect.TypeOf([]any{})
	mapType  = reflect.TypeOf(map[string]any{})
)

// ExprNode evaluates a CEL expression against the source.
type ExprNode struct {
	src string
	prg cel.Program
	err error
}

// Expr returns a transform evaluating a CEL expression. The source is bound
// to the variable source, with instances and records exposed as maps:
//
//	morph.Expr(`source.width * 2`)
//	morph.Expr(`source.tags.filter(t, t != "").size()`)
//
// Compile errors are reported when the owning mapping is built.
func Expr(expression string) *ExprNode {
	n := &ExprNode{src: expression}
	env, err := exprEnv()
	if err != nil {
		n.err = err
		return n
	}
	ast, iss := env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		n.err = iss.Err()
		return n
	}
	n.prg, n.err = env.Program(ast)
	return n
}

// Source returns the expression text.
func (n *ExprNode) Source() string { return n.src }

func (n *ExprNode) check() error {
	if n.err != nil {
		return definitionError("expr %q: %v", n.src, n.err)
	}
	return nil
}

// Eval implements Transform.
func (n *ExprNode) Eval(scope *Scope, source any) (any, error) {
	if n.err != nil {
		return nil, newCoercionError("expr", n.src, n.err)
	}
	out, _, err := n.prg.ContextEval(scope.Context(), map[string]any{"source": exprInput(source)})
	if err != nil {
		return nil, newCoercionError("expr", n.src, err)
	}
	return exprOutput(out)
}

// exprInput converts instances and records into maps CEL understands.
func exprInput(v any) any {
	switch t := v.(type) {
	case *Instance:
		if t == nil {
			return nil
		}
		out := make(map[string]any, len(t.values))
		for k, val := range t.values {
			out[k] = exprInput(val)
		}
		return out
	case *Record:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		t.Range(func(k string, val any) bool {
			out[k] = exprInput(val)
			return true
		})
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = exprInput(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = exprInput(val)
		}
		return out
	}
	return v
}

func exprOutput(val ref.Val) (any, error) {
	switch val.(type) {
	case types.Null:
		return nil, nil
	case traits.Lister:
		return val.ConvertToNative(listType)
	case traits.Mapper:
		return val.ConvertToNative(mapType)
	}
	return val.Value(), nil
}
