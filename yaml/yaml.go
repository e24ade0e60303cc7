// Package yaml provides a YAML codec for morph records.
package yaml

import (
	"github.com/zoobzio/morph"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements morph.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec. Records are encoded as mappings in key order.
func New() morph.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

// Unmarshal decodes YAML data into v.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// toNode builds a node tree so that record order survives encoding.
func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *morph.Record:
		if t == nil {
			break
		}
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		t.Range(func(key string, value any) bool {
			var child *yaml.Node
			if child, err = toNode(value); err != nil {
				return false
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				child,
			)
			return true
		})
		return node, err
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			child, err := toNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	}

	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return node, nil
}
