package manifest

import (
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/morph"
	"gopkg.in/yaml.v3"
)

// expr builds a transform from an expression node. Scalars and sequences
// are literals; a mapping must have exactly one key naming the operation.
func (b *builder) expr(n *yaml.Node) (morph.Transform, error) {
	n = deref(n)
	if n == nil || n.Kind == 0 {
		return nil, errors.New("missing expression")
	}

	switch n.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		v, err := decode(n)
		if err != nil {
			return nil, err
		}
		return morph.Const(v), nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: unsupported expression", n.Line)
	}

	if len(n.Content) != 2 {
		return nil, fmt.Errorf("line %d: expression must have exactly one key", n.Line)
	}
	op, arg := n.Content[0].Value, deref(n.Content[1])

	switch op {
	case "get":
		return b.get(arg)
	case "const":
		v, err := decode(arg)
		if err != nil {
			return nil, err
		}
		return morph.Const(v), nil
	case "concat":
		return b.concat(arg)
	case "str":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.Str(t) })
	case "int":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.Int(t) })
	case "num":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.Num(t) })
	case "bool":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.Bool(t) })
	case "do":
		return b.do(arg)
	case "chain":
		steps, err := b.list(arg)
		if err != nil {
			return nil, err
		}
		return morph.Chain(steps...), nil
	case "all":
		var name string
		if err := arg.Decode(&name); err != nil {
			return nil, err
		}
		if name == "" {
			return morph.All(nil), nil
		}
		m, err := b.lookupMapping(name)
		if err != nil {
			return nil, err
		}
		return morph.All(m), nil
	case "self":
		return morph.Self(), nil
	case "submap", "many_submap":
		var spec struct {
			Mapping string `yaml:"mapping"`
			Path    string `yaml:"path"`
		}
		if err := arg.Decode(&spec); err != nil {
			return nil, err
		}
		m, err := b.lookupMapping(spec.Mapping)
		if err != nil {
			return nil, err
		}
		if op == "submap" {
			return morph.Submap(m, spec.Path), nil
		}
		return morph.ManySubmap(m, spec.Path), nil
	case "many", "flatten":
		parts, err := b.list(arg)
		if err != nil {
			return nil, err
		}
		if op == "many" {
			return morph.Many(anys(parts)...), nil
		}
		return morph.Flatten(anys(parts)...), nil
	case "each":
		var spec struct {
			Over  yaml.Node `yaml:"over"`
			Apply yaml.Node `yaml:"apply"`
		}
		if err := arg.Decode(&spec); err != nil {
			return nil, err
		}
		over, err := b.expr(&spec.Over)
		if err != nil {
			return nil, fmt.Errorf("each.over: %w", err)
		}
		fn, err := b.expr(&spec.Apply)
		if err != nil {
			return nil, fmt.Errorf("each.apply: %w", err)
		}
		return morph.Each(over, fn), nil
	case "expr":
		var src string
		if err := arg.Decode(&src); err != nil {
			return nil, err
		}
		return morph.Expr(src), nil
	case "mask":
		var spec struct {
			Type  string    `yaml:"type"`
			Value yaml.Node `yaml:"value"`
		}
		if err := arg.Decode(&spec); err != nil {
			return nil, err
		}
		if !morph.IsValidMaskType(morph.MaskType(spec.Type)) {
			return nil, fmt.Errorf("line %d: unknown mask type %q", arg.Line, spec.Type)
		}
		inner, err := b.expr(&spec.Value)
		if err != nil {
			return nil, err
		}
		return morph.Mask(morph.MaskType(spec.Type), inner), nil
	case "hash":
		var spec struct {
			Algo  string    `yaml:"algo"`
			Value yaml.Node `yaml:"value"`
		}
		if err := arg.Decode(&spec); err != nil {
			return nil, err
		}
		if !morph.IsValidHashAlgo(morph.HashAlgo(spec.Algo)) {
			return nil, fmt.Errorf("line %d: unknown hash algorithm %q", arg.Line, spec.Algo)
		}
		inner, err := b.expr(&spec.Value)
		if err != nil {
			return nil, err
		}
		return morph.Hash(morph.HashAlgo(spec.Algo), inner), nil
	case "redact":
		var spec struct {
			Text  string    `yaml:"text"`
			Value yaml.Node `yaml:"value"`
		}
		if err := arg.Decode(&spec); err != nil {
			return nil, err
		}
		inner, err := b.expr(&spec.Value)
		if err != nil {
			return nil, err
		}
		return morph.Redact(spec.Text, inner), nil
	case "strip_html":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.StripHTML(t) })
	case "sanitize_html":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.SanitizeHTML(t) })
	case "parse_date":
		return b.parseDate(arg)
	case "iso_string":
		return b.wrap(arg, func(t morph.Transform) morph.Transform { return morph.IsoString(t) })
	}
	return nil, fmt.Errorf("line %d: unknown operation %q", n.Line, op)
}

func (b *builder) wrap(arg *yaml.Node, fn func(morph.Transform) morph.Transform) (morph.Transform, error) {
	inner, err := b.expr(arg)
	if err != nil {
		return nil, err
	}
	return fn(inner), nil
}

func (b *builder) list(arg *yaml.Node) ([]morph.Transform, error) {
	if arg.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list", arg.Line)
	}
	out := make([]morph.Transform, len(arg.Content))
	for i, item := range arg.Content {
		t, err := b.expr(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func (b *builder) get(arg *yaml.Node) (morph.Transform, error) {
	if arg.Kind == yaml.ScalarNode {
		return morph.Get(arg.Value), nil
	}
	var spec struct {
		Path    string    `yaml:"path"`
		Default yaml.Node `yaml:"default"`
	}
	if err := arg.Decode(&spec); err != nil {
		return nil, err
	}
	g := morph.Get(spec.Path)
	// default: null is a default of nil, not a missing default.
	if hasKey(arg, "default") {
		v, err := decode(&spec.Default)
		if err != nil {
			return nil, err
		}
		g = g.Default(v)
	}
	return g, nil
}

func (b *builder) concat(arg *yaml.Node) (morph.Transform, error) {
	if arg.Kind == yaml.SequenceNode {
		parts, err := b.list(arg)
		if err != nil {
			return nil, err
		}
		return morph.Concat(anys(parts)...), nil
	}
	var spec struct {
		Parts yaml.Node `yaml:"parts"`
		Sep   string    `yaml:"sep"`
	}
	if err := arg.Decode(&spec); err != nil {
		return nil, err
	}
	parts, err := b.list(&spec.Parts)
	if err != nil {
		return nil, err
	}
	return morph.Concat(anys(parts)...).Sep(spec.Sep), nil
}

func (b *builder) do(arg *yaml.Node) (morph.Transform, error) {
	var spec struct {
		Func string    `yaml:"func"`
		Args yaml.Node `yaml:"args"`
	}
	if err := arg.Decode(&spec); err != nil {
		return nil, err
	}
	fn, ok := b.opts.funcs[spec.Func]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown function %q", arg.Line, spec.Func)
	}
	var args []morph.Transform
	if spec.Args.Kind != 0 {
		var err error
		if args, err = b.list(&spec.Args); err != nil {
			return nil, err
		}
	}
	return morph.Do(fn, anys(args)...), nil
}

func (b *builder) parseDate(arg *yaml.Node) (morph.Transform, error) {
	if arg.Kind != yaml.MappingNode || !hasKey(arg, "value") {
		inner, err := b.expr(arg)
		if err != nil {
			return nil, err
		}
		return morph.ParseDate(inner), nil
	}

	var spec struct {
		Value yaml.Node `yaml:"value"`
		TZ    string    `yaml:"tz"`
	}
	if err := arg.Decode(&spec); err != nil {
		return nil, err
	}
	inner, err := b.expr(&spec.Value)
	if err != nil {
		return nil, err
	}
	node := morph.ParseDate(inner)
	if spec.TZ != "" {
		loc, err := time.LoadLocation(spec.TZ)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", arg.Line, err)
		}
		node = node.In(loc)
	}
	return node, nil
}

func (b *builder) lookupMapping(name string) (*morph.Mapping, error) {
	m, ok := b.cat.mappings[name]
	if !ok {
		return nil, fmt.Errorf("unknown mapping %q", name)
	}
	return m, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func decode(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

func anys(ts []morph.Transform) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}
