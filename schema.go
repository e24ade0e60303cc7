package morph

import (
	"fmt"
	"reflect"
	"sort"
)

// Def binds a field to a name within a schema.
type Def struct {
	Name  string
	Field Field
}

// Attr is shorthand for Def{Name: name, Field: field}.
func Attr(name string, field Field) Def {
	return Def{Name: name, Field: field}
}

// checker is implemented by fields and transforms that can detect a
// malformed declaration before first use.
type checker interface {
	check() error
}

// Schema is an immutable, ordered set of named fields.
// A Schema is safe for concurrent use; instances are not shared between calls.
type Schema struct {
	name  string
	defs  []Def
	index map[string]int
}

// NewSchema builds a schema from an ordered list of field definitions.
func NewSchema(name string, defs ...Def) (*Schema, error) {
	s := &Schema{
		name:  name,
		defs:  make([]Def, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	copy(s.defs, defs)

	if name == "" {
		return nil, definitionError("schema has no name")
	}
	for i, d := range s.defs {
		if d.Name == "" {
			return nil, definitionError("schema %s: field %d has no name", name, i)
		}
		if d.Field == nil {
			return nil, definitionError("schema %s: field %q is nil", name, d.Name)
		}
		if _, dup := s.index[d.Name]; dup {
			return nil, definitionError("schema %s: duplicate field %q", name, d.Name)
		}
		if c, ok := d.Field.(checker); ok {
			if err := c.check(); err != nil {
				return nil, fmt.Errorf("schema %s: field %q: %w", name, d.Name, err)
			}
		}
		s.index[d.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on a malformed declaration.
func MustSchema(name string, defs ...Def) *Schema {
	s, err := NewSchema(name, defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the field definitions in declaration order.
func (s *Schema) Fields() []Def {
	out := make([]Def, len(s.defs))
	copy(out, s.defs)
	return out
}

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.defs[i].Field, true
}

// Len returns the number of declared fields.
func (s *Schema) Len() int { return len(s.defs) }

// Is reports whether inst is an instance of this schema.
func (s *Schema) Is(inst *Instance) bool {
	return inst != nil && inst.schema == s
}

// New constructs an instance from named values. Names the schema does not
// declare fail with a *ConstructionError. Fields left out hold their default,
// or are absent when no default is configured.
func (s *Schema) New(values map[string]any) (*Instance, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := s.index[name]; !ok {
			return nil, newConstructionError(s.name, name, nil)
		}
	}

	inst := &Instance{schema: s, values: make(map[string]any, len(s.defs))}
	for _, d := range s.defs {
		v, supplied := values[d.Name]
		if err := inst.assign(d, v, supplied); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// fromPairs constructs an instance from ordered rule results.
func (s *Schema) fromPairs(pairs []Pair) (*Instance, error) {
	values := make(map[string]any, len(pairs))
	for _, p := range pairs {
		values[p.Key] = p.Value
	}
	return s.New(values)
}

// NewFrom constructs an instance from a mapping-like or struct value.
// Accepted sources are maps with string keys, *Record, *Instance, and
// structs or pointers to structs.
func (s *Schema) NewFrom(src any) (*Instance, error) {
	switch t := src.(type) {
	case nil:
		return s.New(nil)
	case *Instance:
		if s.Is(t) {
			return t.Clone(), nil
		}
		return s.New(t.present())
	}

	if m, ok := asMap(src); ok {
		return s.New(m)
	}
	if m, ok := structValues(src); ok {
		return s.New(m)
	}
	return nil, &ConstructionError{
		Schema: s.name,
		Cause:  newCoercionError(s.name, src, nil),
	}
}

// structValues reads the exported fields of a struct or pointer to struct
// into a map keyed by their morph names.
func structValues(src any) (map[string]any, bool) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, rv.Type().Elem().Kind() == reflect.Struct
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	plan := planFor(rv.Type())
	out := make(map[string]any, len(plan.fields))
	for _, f := range plan.fields {
		out[f.name] = rv.FieldByIndex(f.index).Interface()
	}
	return out, true
}
