package morph

import (
	"fmt"
	"sort"
)

// Pair is one key/value entry of a generic instance.
type Pair struct {
	Key   string
	Value any
}

// Instance is a value holder for a Schema, or a generic instance with an
// open set of keys. Every instance owns its values.
type Instance struct {
	schema *Schema
	keys   []string // generic only, first-seen order
	values map[string]any
}

// NewGeneric builds a generic instance. A repeated key keeps its first
// position and its last value.
func NewGeneric(pairs ...Pair) *Instance {
	inst := &Instance{values: make(map[string]any, len(pairs))}
	for _, p := range pairs {
		inst.setGeneric(p.Key, p.Value)
	}
	return inst
}

// GenericFrom builds a generic instance from a map (keys sorted), a *Record,
// an *Instance or a struct (declaration order).
func GenericFrom(src any) (*Instance, error) {
	switch t := src.(type) {
	case nil:
		return NewGeneric(), nil
	case *Record:
		inst := NewGeneric()
		t.Range(func(k string, v any) bool {
			inst.setGeneric(k, v)
			return true
		})
		return inst, nil
	case *Instance:
		inst := NewGeneric()
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			inst.setGeneric(k, cloneValue(v))
		}
		return inst, nil
	}

	if m, ok := asMap(src); ok {
		return genericFromMap(m), nil
	}
	if m, ok := structValues(src); ok {
		inst := NewGeneric()
		for _, f := range planFor(indirectType(src)).fields {
			inst.setGeneric(f.name, m[f.name])
		}
		return inst, nil
	}
	return nil, &ConstructionError{Schema: "generic", Cause: newCoercionError("object", src, nil)}
}

func genericFromMap(m map[string]any) *Instance {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	inst := &Instance{values: make(map[string]any, len(keys))}
	for _, k := range keys {
		inst.setGeneric(k, m[k])
	}
	return inst
}

func (i *Instance) setGeneric(key string, value any) {
	if _, ok := i.values[key]; !ok {
		i.keys = append(i.keys, key)
	}
	i.values[key] = value
}

// assign stores a value for a declared field, applying the field's
// coercion and default policy. A nil value falls back to the default.
func (i *Instance) assign(d Def, value any, supplied bool) error {
	if value == nil {
		if def, ok := d.Field.Default(); ok {
			v, err := d.Field.Assign(def)
			if err != nil {
				return newConstructionError(i.schema.name, d.Name, err)
			}
			i.values[d.Name] = v
			return nil
		}
		if supplied {
			i.values[d.Name] = nil
		} else {
			delete(i.values, d.Name)
		}
		return nil
	}

	v, err := d.Field.Assign(value)
	if err != nil {
		return newConstructionError(i.schema.name, d.Name, err)
	}
	i.values[d.Name] = v
	return nil
}

// Schema returns the instance's schema, or nil for a generic instance.
func (i *Instance) Schema() *Schema { return i.schema }

// IsGeneric reports whether the instance has no schema.
func (i *Instance) IsGeneric() bool { return i.schema == nil }

// Keys returns the names holding a value (including explicit nulls): declaration
// order for schema instances, first-seen order for generic ones.
func (i *Instance) Keys() []string {
	if i.schema == nil {
		out := make([]string, len(i.keys))
		copy(out, i.keys)
		return out
	}
	out := make([]string, 0, len(i.values))
	for _, d := range i.schema.defs {
		if _, ok := i.values[d.Name]; ok {
			out = append(out, d.Name)
		}
	}
	return out
}

// Get returns the value held under name. The boolean is false when the
// field is absent or not declared.
func (i *Instance) Get(name string) (any, bool) {
	if i == nil {
		return nil, false
	}
	v, ok := i.values[name]
	return v, ok
}

// Lookup implements Lookuper.
func (i *Instance) Lookup(name string) (any, bool) {
	return i.Get(name)
}

// Set assigns a value. Schema instances reject undeclared names with a
// *ConstructionError; generic instances append new keys.
func (i *Instance) Set(name string, value any) error {
	if i.schema == nil {
		i.setGeneric(name, value)
		return nil
	}
	idx, ok := i.schema.index[name]
	if !ok {
		return newConstructionError(i.schema.name, name, nil)
	}
	return i.assign(i.schema.defs[idx], value, true)
}

// Validate checks every field and returns a *ValidationError listing all
// failures in declaration order. Generic instances are always valid.
func (i *Instance) Validate() error {
	if verr := i.validate(); verr != nil {
		return verr
	}
	return nil
}

func (i *Instance) validate() *ValidationError {
	if i.schema == nil {
		return nil
	}
	var failed []FieldReasons
	for _, d := range i.schema.defs {
		if reasons := d.Field.Validate(i.values[d.Name]); len(reasons) > 0 {
			failed = append(failed, FieldReasons{Field: d.Name, Reasons: reasons})
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ValidationError{Schema: i.schema.name, Fields: failed}
}

// SerializeOption configures Serialize.
type SerializeOption func(*serializeConfig)

type serializeConfig struct {
	implicitNulls bool
}

// ImplicitNulls omits absent and nil values from the output instead of
// emitting them as explicit nulls.
func ImplicitNulls() SerializeOption {
	return serializeFlag(true)
}

func serializeFlag(on bool) SerializeOption {
	return func(c *serializeConfig) { c.implicitNulls = on }
}

// Serialize converts the instance into an ordered plain record.
// Serialization never validates.
func (i *Instance) Serialize(opts ...SerializeOption) (*Record, error) {
	var cfg serializeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if i.schema == nil {
		rec := NewRecord(len(i.keys))
		for _, k := range i.keys {
			v, err := serializeValue(i.values[k], cfg.implicitNulls)
			if err != nil {
				return nil, fmt.Errorf("serialize %s: %w", k, err)
			}
			if v == nil && cfg.implicitNulls {
				continue
			}
			rec.Set(k, v)
		}
		return rec, nil
	}

	rec := NewRecord(len(i.schema.defs))
	for _, d := range i.schema.defs {
		raw, ok := i.values[d.Name]
		if !ok || raw == nil {
			if !cfg.implicitNulls {
				rec.Set(d.Name, nil)
			}
			continue
		}
		v, err := d.Field.Serialize(raw, cfg.implicitNulls)
		if err != nil {
			return nil, fmt.Errorf("serialize %s.%s: %w", i.schema.name, d.Name, err)
		}
		if v == nil && cfg.implicitNulls {
			continue
		}
		rec.Set(d.Name, v)
	}
	return rec, nil
}

// SerializeValue implements Serializable.
func (i *Instance) SerializeValue(implicitNulls bool) (any, error) {
	return i.Serialize(serializeFlag(implicitNulls))
}

// IsEmpty reports whether no key holds a non-nil value.
func (i *Instance) IsEmpty() bool {
	for _, v := range i.values {
		if v != nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	out := &Instance{
		schema: i.schema,
		values: make(map[string]any, len(i.values)),
	}
	if i.keys != nil {
		out.keys = make([]string, len(i.keys))
		copy(out.keys, i.keys)
	}
	for k, v := range i.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// present returns the values currently held, keyed by name.
func (i *Instance) present() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

func (i *Instance) describe() string {
	if i.schema == nil {
		return "generic instance"
	}
	return i.schema.name + " instance"
}

// String implements fmt.Stringer.
func (i *Instance) String() string {
	rec, err := i.Serialize()
	if err != nil {
		return fmt.Sprintf("%s(%v)", i.describe(), err)
	}
	b, err := rec.MarshalJSON()
	if err != nil {
		return i.describe()
	}
	return i.describe() + string(b)
}
