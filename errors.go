package morph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalid indicates an instance failed an explicit Validate call.
	ErrInvalid = errors.New("invalid")

	// ErrLookup indicates a path segment was absent and no default was configured.
	ErrLookup = errors.New("lookup failed")

	// ErrCoercion indicates a value could not be converted to a target representation,
	// or a function supplied to Do returned an error.
	ErrCoercion = errors.New("coercion failed")

	// ErrConstruction indicates an instance was built with a name the schema does not declare.
	ErrConstruction = errors.New("construction failed")

	// ErrDefinition indicates a schema or mapping declaration is malformed.
	ErrDefinition = errors.New("invalid definition")
)

// ValidationError is the aggregated failure returned by Validate.
// It reports every offending field, in declaration order.
type ValidationError struct {
	Schema string
	Fields []FieldReasons
}

// FieldReasons pairs a field name with the reasons it failed validation.
type FieldReasons struct {
	Field   string
	Reasons []string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, strings.Join(f.Reasons, ", ")))
	}
	if e.Schema != "" {
		return fmt.Sprintf("%s %s: %s", e.Schema, ErrInvalid.Error(), strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %s", ErrInvalid.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Reasons returns the reasons recorded for a field, or nil if the field passed.
func (e *ValidationError) Reasons(field string) []string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Reasons
		}
	}
	return nil
}

// Names returns the invalid field names in declaration order.
func (e *ValidationError) Names() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

// LookupError reports the path segment that could not be resolved.
type LookupError struct {
	Path    string // full path being resolved
	Segment string // segment that was absent
}

func (e *LookupError) Error() string {
	if e.Path != "" && e.Path != e.Segment {
		return fmt.Sprintf("%s: %q not found (path %s)", ErrLookup.Error(), e.Segment, e.Path)
	}
	return fmt.Sprintf("%s: %q not found", ErrLookup.Error(), e.Segment)
}

func (e *LookupError) Unwrap() error {
	return ErrLookup
}

// CoercionError reports a value that could not be converted.
type CoercionError struct {
	Target string // target representation (string, integer, function name, ...)
	Value  any    // offending value
	Cause  error  // underlying error, if any
}

func (e *CoercionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v (%T) to %s: %v", ErrCoercion.Error(), e.Value, e.Value, e.Target, e.Cause)
	}
	return fmt.Sprintf("%s: %v (%T) to %s", ErrCoercion.Error(), e.Value, e.Value, e.Target)
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *CoercionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrCoercion, e.Cause}
	}
	return []error{ErrCoercion}
}

// ConstructionError reports a name that the schema does not declare, or a
// nested value that could not be turned into an instance.
type ConstructionError struct {
	Schema string
	Field  string
	Cause  error
}

func (e *ConstructionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s.%s: %v", ErrConstruction.Error(), e.Schema, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s: %s has no field %q", ErrConstruction.Error(), e.Schema, e.Field)
}

func (e *ConstructionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrConstruction, e.Cause}
	}
	return []error{ErrConstruction}
}

// newLookupError creates a LookupError for an absent segment.
func newLookupError(path, segment string) error {
	return &LookupError{Path: path, Segment: segment}
}

// newCoercionError creates a CoercionError for a failed conversion.
func newCoercionError(target string, value any, cause error) error {
	return &CoercionError{Target: target, Value: value, Cause: cause}
}

// newConstructionError creates a ConstructionError for an undeclared name.
func newConstructionError(schema, field string, cause error) error {
	return &ConstructionError{Schema: schema, Field: field, Cause: cause}
}

// definitionError wraps ErrDefinition with context.
func definitionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDefinition, fmt.Sprintf(format, args...))
}
