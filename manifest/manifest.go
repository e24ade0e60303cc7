// Package manifest loads schema and mapping declarations from YAML.
//
// A manifest names schemas and mappings and describes each mapping rule as
// an expression tree:
//
//	schemas:
//	  - name: Circle
//	    fields:
//	      - {name: id, kind: string}
//	      - {name: diameter, kind: number, required: false}
//	mappings:
//	  - name: SquareToCircle
//	    target: Circle
//	    fields:
//	      - name: id
//	        value: {concat: [{const: from_square}, ":", {str: {get: id}}]}
//	      - name: diameter
//	        value: {do: {func: largest_square, args: [{get: width}]}}
//
// Schemas may reference schemas declared before them; mappings may reference
// mappings declared before them.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrManifest indicates a manifest could not be read or built.
var ErrManifest = errors.New("invalid manifest")

// File is the root of a manifest document.
type File struct {
	// Version of the manifest format.
	Version string `yaml:"version,omitempty"`

	// Schemas are declared in order.
	Schemas []SchemaDef `yaml:"schemas,omitempty"`

	// Mappings are declared in order.
	Mappings []MappingDef `yaml:"mappings,omitempty"`
}

// SchemaDef declares a schema.
type SchemaDef struct {
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef declares one schema field.
type FieldDef struct {
	Name string `yaml:"name,omitempty"`

	// Kind is one of any, integer, number, boolean, string, isodate,
	// datetime, uuid, object, array, nested.
	Kind string `yaml:"kind"`

	// Required defaults to true.
	Required *bool `yaml:"required,omitempty"`

	// Default is decoded as a plain value. An explicit null is a nil default.
	Default yaml.Node `yaml:"default,omitempty"`

	// Strict and Encoding apply to string and isodate fields.
	Strict   bool   `yaml:"strict,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`

	// Items is the element field of an array.
	Items *FieldDef `yaml:"items,omitempty"`

	// Schema names the schema of a nested field.
	Schema string `yaml:"schema,omitempty"`
}

// MappingDef declares a mapping.
type MappingDef struct {
	Name   string    `yaml:"name"`
	Source string    `yaml:"source,omitempty"`
	Target string    `yaml:"target,omitempty"`
	Fields []RuleDef `yaml:"fields"`
}

// RuleDef declares one mapping rule.
type RuleDef struct {
	// Name is the output name.
	Name string `yaml:"name"`

	// Key is the declaration key, when it differs from Name.
	Key string `yaml:"key,omitempty"`

	// Value is the expression producing the output.
	Value yaml.Node `yaml:"value"`
}

// LoadFile reads and parses a manifest from path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrManifest, path, err)
	}
	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse: %w", ErrManifest, err)
	}
	applyDefaults(&f)
	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}
	for i := range f.Mappings {
		for j := range f.Mappings[i].Fields {
			r := &f.Mappings[i].Fields[j]
			if r.Key == "" {
				r.Key = r.Name
			}
		}
	}
}
