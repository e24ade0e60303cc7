package morph

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// Any returns a field that accepts any value.
func Any(opts ...FieldOption) Field {
	return &anyField{base: newBase(KindAny, newFieldConfig(opts))}
}

type anyField struct{ base }

func (f *anyField) Validate(value any) []string {
	reasons, _ := f.present(value)
	return reasons
}

// Integer returns a field holding integers.
func Integer(opts ...FieldOption) Field {
	return &integerField{base: newBase(KindInteger, newFieldConfig(opts))}
}

type integerField struct{ base }

func (f *integerField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	if _, ok := value.(bool); ok || !isInteger(value) {
		return []string{fmt.Sprintf("%v is not a valid integer", value)}
	}
	return nil
}

// Number returns a field holding any numeric value.
func Number(opts ...FieldOption) Field {
	return &numberField{base: newBase(KindNumber, newFieldConfig(opts))}
}

type numberField struct{ base }

func (f *numberField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	if !isNumber(value) {
		return []string{fmt.Sprintf("%v is not a valid number", value)}
	}
	return nil
}

// Boolean returns a field holding booleans.
func Boolean(opts ...FieldOption) Field {
	return &booleanField{base: newBase(KindBoolean, newFieldConfig(opts))}
}

type booleanField struct{ base }

func (f *booleanField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	if _, ok := value.(bool); !ok {
		return []string{fmt.Sprintf("%v is not a valid boolean", value)}
	}
	return nil
}

// String returns a text field. Unless Strict is given, byte strings are
// accepted and decoded using the field's encoding.
func String(opts ...FieldOption) Field {
	return newStringField(KindString, opts)
}

func newStringField(kind Kind, opts []FieldOption) *stringField {
	cfg := newFieldConfig(opts)
	f := &stringField{
		base:    newBase(kind, cfg),
		strict:  cfg.strict,
		encName: strings.ToLower(cfg.encoding),
	}
	if f.encName != "utf-8" && f.encName != "utf8" {
		f.enc, f.encErr = htmlindex.Get(cfg.encoding)
	}
	return f
}

type stringField struct {
	base
	strict  bool
	encName string
	enc     encoding.Encoding
	encErr  error
}

func (f *stringField) check() error {
	if f.encErr != nil {
		return definitionError("unknown encoding %q", f.encName)
	}
	return nil
}

// decode returns the text held by value.
func (f *stringField) decode(value any) (string, bool) {
	switch t := value.(type) {
	case string:
		return t, true
	case []byte:
		if f.strict {
			return "", false
		}
		if f.enc == nil {
			if f.encErr != nil || !utf8.Valid(t) {
				return "", false
			}
			return string(t), true
		}
		out, err := f.enc.NewDecoder().Bytes(t)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
	return "", false
}

func (f *stringField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	if _, ok := f.decode(value); !ok {
		if _, isBytes := value.([]byte); isBytes && !f.strict {
			return []string{fmt.Sprintf("bytes are not valid %s", f.encName)}
		}
		return []string{fmt.Sprintf("%v is not a valid string", value)}
	}
	return nil
}

func (f *stringField) Serialize(value any, implicitNulls bool) (any, error) {
	if s, ok := f.decode(value); ok {
		return s, nil
	}
	return serializeValue(value, implicitNulls)
}

// IsoDate returns a text field whose value must start with an ISO-8601
// date and time (YYYY-MM-DDTHH:MM:SS).
func IsoDate(opts ...FieldOption) Field {
	return &isoDateField{stringField: newStringField(KindIsoDate, opts)}
}

type isoDateField struct {
	*stringField
}

func (f *isoDateField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	if reasons := f.stringField.Validate(value); reasons != nil {
		return reasons
	}
	s, _ := f.decode(value)
	if !isoDatePattern.MatchString(s) {
		return []string{fmt.Sprintf("%q is not a valid ISO 8601 date", s)}
	}
	return nil
}

// DateTime returns a field holding time.Time values.
func DateTime(opts ...FieldOption) Field {
	return &dateTimeField{base: newBase(KindDateTime, newFieldConfig(opts))}
}

type dateTimeField struct{ base }

func (f *dateTimeField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	switch value.(type) {
	case time.Time, *time.Time:
		return nil
	}
	return []string{fmt.Sprintf("%v is not a valid datetime", value)}
}

// UUID returns a field holding UUID strings or uuid.UUID values.
func UUID(opts ...FieldOption) Field {
	return &uuidField{base: newBase(KindUUID, newFieldConfig(opts))}
}

type uuidField struct{ base }

func (f *uuidField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	switch t := value.(type) {
	case uuid.UUID:
		return nil
	case string:
		if _, err := uuid.Parse(t); err == nil {
			return nil
		}
	}
	return []string{fmt.Sprintf("%v is not a valid uuid", value)}
}

func (f *uuidField) Serialize(value any, implicitNulls bool) (any, error) {
	if id, ok := value.(uuid.UUID); ok {
		return id.String(), nil
	}
	return serializeValue(value, implicitNulls)
}

// Object returns a field holding a schemaless mapping.
func Object(opts ...FieldOption) Field {
	return &objectField{base: newBase(KindObject, newFieldConfig(opts))}
}

type objectField struct{ base }

func (f *objectField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	switch t := value.(type) {
	case *Record:
		return nil
	case *Instance:
		return instanceReasons(t)
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return nil
	}
	return []string{fmt.Sprintf("%v is not a valid object", value)}
}

// Array returns a field holding a sequence. A nil elem accepts any elements.
func Array(elem Field, opts ...FieldOption) Field {
	return &arrayField{base: newBase(KindArray, newFieldConfig(opts)), elem: elem}
}

type arrayField struct {
	base
	elem Field
}

func (f *arrayField) check() error {
	if c, ok := f.elem.(checker); ok {
		return c.check()
	}
	return nil
}

// Elem returns the element field, or nil.
func (f *arrayField) Elem() Field { return f.elem }

func (f *arrayField) Assign(value any) (any, error) {
	if f.elem == nil || !isSequence(value) {
		return value, nil
	}
	if k := f.elem.Kind(); k != KindNested && k != KindArray {
		return value, nil
	}
	items := elements(value)
	out := make([]any, len(items))
	for i, item := range items {
		v, err := f.elem.Assign(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (f *arrayField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	if !isSequence(value) {
		return []string{fmt.Sprintf("%v is not a valid array", value)}
	}
	if f.elem == nil {
		return nil
	}
	var reasons []string
	for i, item := range elements(value) {
		for _, r := range f.elem.Validate(item) {
			reasons = append(reasons, fmt.Sprintf("[%d]: %s", i, r))
		}
	}
	return reasons
}

func (f *arrayField) Serialize(value any, implicitNulls bool) (any, error) {
	if f.elem == nil || !isSequence(value) {
		return serializeValue(value, implicitNulls)
	}
	items := elements(value)
	out := make([]any, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		v, err := f.elem.Serialize(item, implicitNulls)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Nested returns a field holding an instance of schema. Plain mappings
// assigned to it are converted into instances.
func Nested(schema *Schema, opts ...FieldOption) Field {
	return &nestedField{base: newBase(KindNested, newFieldConfig(opts)), schema: schema}
}

type nestedField struct {
	base
	schema *Schema
}

func (f *nestedField) check() error {
	if f.schema == nil {
		return definitionError("nested field has no schema")
	}
	return nil
}

// Schema returns the nested schema.
func (f *nestedField) Schema() *Schema { return f.schema }

func (f *nestedField) Assign(value any) (any, error) {
	switch value.(type) {
	case nil, *Instance:
		return value, nil
	}
	if m, ok := asMap(value); ok {
		return f.schema.New(m)
	}
	return value, nil
}

func (f *nestedField) Validate(value any) []string {
	if reasons, done := f.present(value); done {
		return reasons
	}
	inst, ok := value.(*Instance)
	if !ok {
		m, isMap := asMap(value)
		if !isMap {
			return []string{fmt.Sprintf("%v is not a valid %s", value, f.schema.Name())}
		}
		var err error
		if inst, err = f.schema.New(m); err != nil {
			return []string{err.Error()}
		}
	}
	if !f.schema.Is(inst) {
		return []string{fmt.Sprintf("%s is not a valid %s", inst.describe(), f.schema.Name())}
	}
	return instanceReasons(inst)
}

// instanceReasons flattens a nested instance's validation failures into
// reasons prefixed with the inner field name.
func instanceReasons(inst *Instance) []string {
	verr := inst.validate()
	if verr == nil {
		return nil
	}
	var reasons []string
	for _, fr := range verr.Fields {
		for _, r := range fr.Reasons {
			reasons = append(reasons, fmt.Sprintf("%s: %s", fr.Field, r))
		}
	}
	return reasons
}

// asMap returns a plain map view of mapping-like values.
func asMap(value any) (map[string]any, bool) {
	switch t := value.(type) {
	case map[string]any:
		return t, true
	case *Record:
		if t == nil {
			return nil, false
		}
		out := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			out[k] = t.values[k]
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
