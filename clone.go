package morph

import (
	"github.com/mohae/deepcopy"
)

// Cloner allows types to provide deep copy logic.
//
// The Clone method must return a deep copy where modifications to the clone
// do not affect the original value. Instance implements Cloner[*Instance].
type Cloner[T any] interface {
	Clone() T
}

var _ Cloner[*Instance] = (*Instance)(nil)

// cloneValue returns a copy of v that shares no mutable state with it.
// Literals and defaults pass through here on every read so that results of
// one evaluation never alias results of another.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	case *Instance:
		return t.Clone()
	case *Record:
		return t.clone()
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Cloner[any]:
		return t.Clone()
	default:
		return deepcopy.Copy(v)
	}
}

func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	out := NewRecord(len(r.keys))
	for _, k := range r.keys {
		out.Set(k, cloneValue(r.values[k]))
	}
	return out
}
