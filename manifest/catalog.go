package manifest

import (
	"errors"
	"fmt"

	"github.com/zoobzio/morph"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Funcs maps the names used by do expressions to functions.
type Funcs map[string]morph.Func

// Option configures Build.
type Option func(*options)

type options struct {
	funcs  Funcs
	tracer trace.Tracer
	meter  metric.Meter
}

// WithFuncs makes fns available to do expressions. Repeated calls merge.
func WithFuncs(fns Funcs) Option {
	return func(o *options) {
		for name, fn := range fns {
			o.funcs[name] = fn
		}
	}
}

// WithTracer traces every mapping in the catalog.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter meters every mapping in the catalog.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// Catalog holds the schemas and mappings built from a manifest.
type Catalog struct {
	schemas      map[string]*morph.Schema
	mappings     map[string]*morph.Mapping
	schemaOrder  []string
	mappingOrder []string
}

// Schema returns the named schema.
func (c *Catalog) Schema(name string) (*morph.Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// Mapping returns the named mapping.
func (c *Catalog) Mapping(name string) (*morph.Mapping, bool) {
	m, ok := c.mappings[name]
	return m, ok
}

// Schemas returns schema names in declaration order.
func (c *Catalog) Schemas() []string {
	return append([]string(nil), c.schemaOrder...)
}

// Mappings returns mapping names in declaration order.
func (c *Catalog) Mappings() []string {
	return append([]string(nil), c.mappingOrder...)
}

// Load reads a manifest file and builds it.
func Load(path string, opts ...Option) (*Catalog, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(f, opts...)
}

// Build turns a parsed manifest into schemas and mappings. Every problem in
// the document is reported; each wraps ErrManifest.
func Build(f *File, opts ...Option) (*Catalog, error) {
	o := options{funcs: Funcs{}}
	for _, opt := range opts {
		opt(&o)
	}

	b := &builder{
		opts: o,
		cat: &Catalog{
			schemas:  make(map[string]*morph.Schema),
			mappings: make(map[string]*morph.Mapping),
		},
	}

	var errs []error
	for _, sd := range f.Schemas {
		if err := b.schema(sd); err != nil {
			errs = append(errs, fmt.Errorf("%w: schema %q: %w", ErrManifest, sd.Name, err))
		}
	}
	for _, md := range f.Mappings {
		if err := b.mapping(md); err != nil {
			errs = append(errs, fmt.Errorf("%w: mapping %q: %w", ErrManifest, md.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.cat, nil
}

type builder struct {
	opts options
	cat  *Catalog
}

func (b *builder) schema(sd SchemaDef) error {
	if sd.Name == "" {
		return errors.New("missing name")
	}
	if _, dup := b.cat.schemas[sd.Name]; dup {
		return errors.New("declared twice")
	}

	defs := make([]morph.Def, 0, len(sd.Fields))
	for i, fd := range sd.Fields {
		f, err := b.field(fd)
		if err != nil {
			return fmt.Errorf("field %d (%s): %w", i, fd.Name, err)
		}
		defs = append(defs, morph.Attr(fd.Name, f))
	}

	s, err := morph.NewSchema(sd.Name, defs...)
	if err != nil {
		return err
	}
	b.cat.schemas[sd.Name] = s
	b.cat.schemaOrder = append(b.cat.schemaOrder, sd.Name)
	return nil
}

func (b *builder) field(fd FieldDef) (morph.Field, error) {
	var opts []morph.FieldOption
	if fd.Required != nil {
		opts = append(opts, morph.Required(*fd.Required))
	}
	if fd.Default.Kind != 0 {
		var v any
		if err := fd.Default.Decode(&v); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		opts = append(opts, morph.Default(v))
	}
	if fd.Strict {
		opts = append(opts, morph.Strict())
	}
	if fd.Encoding != "" {
		opts = append(opts, morph.Encoding(fd.Encoding))
	}

	kind, ok := morph.ParseKind(fd.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", fd.Kind)
	}

	switch kind {
	case morph.KindInteger:
		return morph.Integer(opts...), nil
	case morph.KindNumber:
		return morph.Number(opts...), nil
	case morph.KindBoolean:
		return morph.Boolean(opts...), nil
	case morph.KindString:
		return morph.String(opts...), nil
	case morph.KindIsoDate:
		return morph.IsoDate(opts...), nil
	case morph.KindDateTime:
		return morph.DateTime(opts...), nil
	case morph.KindUUID:
		return morph.UUID(opts...), nil
	case morph.KindObject:
		return morph.Object(opts...), nil
	case morph.KindArray:
		var elem morph.Field
		if fd.Items != nil {
			var err error
			if elem, err = b.field(*fd.Items); err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
		}
		return morph.Array(elem, opts...), nil
	case morph.KindNested:
		s, ok := b.cat.schemas[fd.Schema]
		if !ok {
			return nil, fmt.Errorf("unknown schema %q", fd.Schema)
		}
		return morph.Nested(s, opts...), nil
	}
	return morph.Any(opts...), nil
}

func (b *builder) mapping(md MappingDef) error {
	if md.Name == "" {
		return errors.New("missing name")
	}
	if _, dup := b.cat.mappings[md.Name]; dup {
		return errors.New("declared twice")
	}

	mb := morph.Map(md.Name)
	if md.Source != "" {
		s, ok := b.cat.schemas[md.Source]
		if !ok {
			return fmt.Errorf("unknown source schema %q", md.Source)
		}
		mb.From(s)
	}
	if md.Target != "" {
		s, ok := b.cat.schemas[md.Target]
		if !ok {
			return fmt.Errorf("unknown target schema %q", md.Target)
		}
		mb.To(s)
	}
	if b.opts.tracer != nil {
		mb.Trace(b.opts.tracer)
	}
	if b.opts.meter != nil {
		mb.Meter(b.opts.meter)
	}

	var errs []error
	for _, rd := range md.Fields {
		t, err := b.expr(&rd.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", rd.Name, err))
			continue
		}
		mb.Alias(rd.Name, rd.Key, t)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	m, err := mb.Build()
	if err != nil {
		return err
	}
	b.cat.mappings[md.Name] = m
	b.cat.mappingOrder = append(b.cat.mappingOrder, md.Name)
	return nil
}
