package morph

import (
	"reflect"
)

// Field describes one named slot of a Schema: the kind of value it holds,
// whether a value is required, and its default.
//
// Fields are immutable once constructed and are shared by every instance of
// the owning Schema; they never hold per-instance state.
type Field interface {
	// Kind reports the value shape this field accepts.
	Kind() Kind

	// Required reports whether a nil or absent value is invalid.
	Required() bool

	// Default returns the field's default and whether one is configured.
	// Mutable defaults are copied on every call.
	Default() (any, bool)

	// Assign coerces a value at construction or assignment time.
	// Nested and array-of-nested fields turn plain mappings into instances here.
	Assign(value any) (any, error)

	// Validate returns the reasons value is unacceptable, or nil.
	Validate(value any) []string

	// Serialize converts value into a plain representation.
	Serialize(value any, implicitNulls bool) (any, error)
}

// FieldOption configures a field at construction.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	required   bool
	def        any
	hasDefault bool
	defFunc    func() any
	strict     bool
	encoding   string
}

// Optional marks the field as not required.
func Optional() FieldOption {
	return func(c *fieldConfig) { c.required = false }
}

// Required sets whether the field requires a value. Fields are required by default.
func Required(required bool) FieldOption {
	return func(c *fieldConfig) { c.required = required }
}

// Default sets a fixed default value.
func Default(v any) FieldOption {
	return func(c *fieldConfig) {
		c.def = v
		c.hasDefault = true
		c.defFunc = nil
	}
}

// DefaultFunc sets a default computed when an instance is constructed.
func DefaultFunc(fn func() any) FieldOption {
	return func(c *fieldConfig) {
		c.defFunc = fn
		c.hasDefault = fn != nil
		c.def = nil
	}
}

// Strict disables coercion of byte strings into text for string fields.
func Strict() FieldOption {
	return func(c *fieldConfig) { c.strict = true }
}

// Encoding sets the text encoding used to decode byte strings (default "utf-8").
func Encoding(name string) FieldOption {
	return func(c *fieldConfig) { c.encoding = name }
}

func newFieldConfig(opts []FieldOption) fieldConfig {
	cfg := fieldConfig{required: true, encoding: "utf-8"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// base carries the policy shared by every field kind.
type base struct {
	kind       Kind
	required   bool
	def        any
	hasDefault bool
	defFunc    func() any
}

func newBase(kind Kind, cfg fieldConfig) base {
	return base{
		kind:       kind,
		required:   cfg.required,
		def:        cfg.def,
		hasDefault: cfg.hasDefault,
		defFunc:    cfg.defFunc,
	}
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) Required() bool { return b.required }

func (b *base) Default() (any, bool) {
	if b.defFunc != nil {
		return b.defFunc(), true
	}
	if b.hasDefault {
		return cloneValue(b.def), true
	}
	return nil, false
}

func (b *base) Assign(value any) (any, error) { return value, nil }

func (b *base) Serialize(value any, implicitNulls bool) (any, error) {
	return serializeValue(value, implicitNulls)
}

// present checks the required policy. It reports done when no further
// checks apply: the value is nil, whether or not that is acceptable.
func (b *base) present(value any) (reasons []string, done bool) {
	if !isNil(value) {
		return nil, false
	}
	if b.required {
		return []string{"a value is required"}, true
	}
	return nil, true
}

// isNil reports whether v is nil or a typed nil pointer, map or slice.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// serializeValue converts any value into plain output: instances and maps
// become records, sequences become []any, everything else is returned as is.
func serializeValue(v any, implicitNulls bool) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Instance:
		if t == nil {
			return nil, nil
		}
		return t.Serialize(serializeFlag(implicitNulls))
	case *Record:
		return t.clone(), nil
	case Serializable:
		return t.SerializeValue(implicitNulls)
	case []byte:
		return t, nil
	case map[string]any:
		rec := RecordOf(t)
		for _, k := range rec.keys {
			sv, err := serializeValue(rec.values[k], implicitNulls)
			if err != nil {
				return nil, err
			}
			rec.values[k] = sv
		}
		return rec, nil
	}

	if isSequence(v) {
		items := elements(v)
		out := make([]any, len(items))
		for i, item := range items {
			sv, err := serializeValue(item, implicitNulls)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	}
	return v, nil
}
