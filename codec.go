package morph

import (
	"fmt"
)

// Encode serializes inst and marshals the resulting record with c.
func Encode(c Codec, inst *Instance, opts ...SerializeOption) ([]byte, error) {
	rec, err := inst.Serialize(opts...)
	if err != nil {
		return nil, err
	}
	data, err := c.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.ContentType(), err)
	}
	return data, nil
}

// Decode unmarshals data with c into a plain source value: maps with
// string keys, []any and scalars.
func Decode(c Codec, data []byte) (any, error) {
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.ContentType(), err)
	}
	return normalize(v), nil
}

// normalize converts decoder-specific container types into
// map[string]any and []any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case *Record:
		return normalize(t.Map())
	}
	return v
}
