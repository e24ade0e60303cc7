package morph

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are built once; bluemonday policies are safe for concurrent use
// once configured.
var (
	strictPolicy = sync.OnceValue(bluemonday.StrictPolicy)
	ugcPolicy    = sync.OnceValue(bluemonday.UGCPolicy)
)

type sanitizeNode struct {
	policy func() *bluemonday.Policy
	inner  Transform
}

// StripHTML returns a transform removing all markup from the string form of
// inner's result.
func StripHTML(inner any) Transform {
	return &sanitizeNode{policy: strictPolicy, inner: asTransform(inner)}
}

// SanitizeHTML returns a transform keeping only safe user-generated-content
// markup in the string form of inner's result.
func SanitizeHTML(inner any) Transform {
	return &sanitizeNode{policy: ugcPolicy, inner: asTransform(inner)}
}

func (n *sanitizeNode) check() error {
	return checkAll(n.inner)
}

func (n *sanitizeNode) Eval(scope *Scope, source any) (any, error) {
	v, err := n.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := ToString(v)
	if err != nil {
		return nil, err
	}
	return n.policy().Sanitize(s), nil
}
