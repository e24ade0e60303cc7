// Package json provides a JSON codec for morph records.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/zoobzio/morph"
)

// jsonCodec implements morph.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec. Records are encoded as objects in key order.
func New() morph.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON. *morph.Record values keep their key order.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v. Integral numbers decoded into an
// interface value become int64; other numbers become float64.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	target, ok := v.(*any)
	if !ok {
		return json.Unmarshal(data, v)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*target = numbers(raw)
	return nil
}

// numbers replaces json.Number values with int64 or float64.
func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = numbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = numbers(e)
		}
	}
	return v
}
