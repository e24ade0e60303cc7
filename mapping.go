package morph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Rule binds one output name to the transform producing its value.
type Rule struct {
	Name      string // output name
	Key       string // declaration key, only checked for duplicates; equals Name unless aliased
	Transform Transform
}

// Mapping is an immutable, ordered set of rules with optional source and
// target schemas. A Mapping is safe for concurrent use: every Apply builds
// its own scope and result.
type Mapping struct {
	name   string
	source *Schema
	target *Schema
	rules  []Rule
	tel    *telemetry
}

// Builder declares a Mapping.
type Builder struct {
	name   string
	source *Schema
	target *Schema
	rules  []Rule
	tracer trace.Tracer
	meter  metric.Meter
}

// Map starts declaring a mapping.
//
//	m := morph.Map("SquareToCircle").
//		From(Square).
//		To(Circle).
//		Field("id", morph.Concat("from_square:", morph.Str(morph.Get("id")))).
//		Field("diameter", morph.Do(largestSquare, morph.Get("width"))).
//		MustBuild()
func Map(name string) *Builder {
	return &Builder{name: name}
}

// From sets the source schema. Sources that are not instances of it are
// converted with NewFrom before rules run.
func (b *Builder) From(s *Schema) *Builder {
	b.source = s
	return b
}

// To sets the target schema. Without one, Apply produces generic instances.
func (b *Builder) To(s *Schema) *Builder {
	b.target = s
	return b
}

// Field appends a rule producing the named output.
func (b *Builder) Field(name string, t Transform) *Builder {
	b.rules = append(b.rules, Rule{Name: name, Key: name, Transform: t})
	return b
}

// Alias appends a rule whose output name differs from its declaration key.
// The key is informational: Build rejects duplicate keys, but the output
// always carries name.
func (b *Builder) Alias(name, key string, t Transform) *Builder {
	b.rules = append(b.rules, Rule{Name: name, Key: key, Transform: t})
	return b
}

// Trace records a span per top-level Apply.
func (b *Builder) Trace(tracer trace.Tracer) *Builder {
	b.tracer = tracer
	return b
}

// Meter records Apply counts and durations.
func (b *Builder) Meter(meter metric.Meter) *Builder {
	b.meter = meter
	return b
}

// Build checks the declaration and returns the mapping.
// Malformed declarations fail with ErrDefinition.
func (b *Builder) Build() (*Mapping, error) {
	m := &Mapping{
		name:   b.name,
		source: b.source,
		target: b.target,
		rules:  make([]Rule, len(b.rules)),
	}
	copy(m.rules, b.rules)

	names := make(map[string]bool, len(m.rules))
	keys := make(map[string]bool, len(m.rules))
	var errs []error
	for i, r := range m.rules {
		switch {
		case r.Name == "":
			errs = append(errs, definitionError("mapping %s: rule %d has no name", b.name, i))
			continue
		case names[r.Name]:
			errs = append(errs, definitionError("mapping %s: duplicate field %q", b.name, r.Name))
		case r.Key != "" && keys[r.Key]:
			errs = append(errs, definitionError("mapping %s: duplicate key %q", b.name, r.Key))
		}
		names[r.Name] = true
		keys[r.Key] = true

		if r.Transform == nil {
			errs = append(errs, definitionError("mapping %s: field %q has no transform", b.name, r.Name))
			continue
		}
		if err := checkAll(r.Transform); err != nil {
			errs = append(errs, fmt.Errorf("mapping %s: field %q: %w", b.name, r.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	tel, err := newTelemetry(b.tracer, b.meter)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", b.name, err)
	}
	m.tel = tel

	emitMappingBuilt(context.Background(), m.name, m.targetName(), len(m.rules))
	return m, nil
}

// MustBuild is like Build but panics on a malformed declaration.
func (b *Builder) MustBuild() *Mapping {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the mapping name.
func (m *Mapping) Name() string { return m.name }

// Source returns the source schema, or nil.
func (m *Mapping) Source() *Schema { return m.source }

// Target returns the target schema, or nil for generic output.
func (m *Mapping) Target() *Schema { return m.target }

// Rules returns the rules in declaration order.
func (m *Mapping) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

func (m *Mapping) targetName() string {
	if m.target == nil {
		return "generic"
	}
	return m.target.name
}

// Apply evaluates every rule against source, in declaration order, and
// builds the result. The first failing rule aborts the call. The result is
// not validated.
func (m *Mapping) Apply(ctx context.Context, source any) (*Instance, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	began := time.Now()
	emitApplyStart(ctx, m.name, m.targetName())

	ctx, finish := m.tel.start(ctx, m)
	inst, err := m.apply(NewScope(ctx), source)
	finish(err)

	emitApplyComplete(ctx, m.name, m.targetName(), len(m.rules), time.Since(began), err)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// apply runs the rules inside an existing scope. Nested mappings reached
// through All, Submap and ManySubmap come through here.
func (m *Mapping) apply(scope *Scope, source any) (*Instance, error) {
	if m.source != nil {
		if inst, ok := source.(*Instance); !ok || !m.source.Is(inst) {
			converted, err := m.source.NewFrom(source)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.name, err)
			}
			source = converted
		}
	}

	pairs := make([]Pair, len(m.rules))
	for i, r := range m.rules {
		v, err := r.Transform.Eval(scope, source)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.name, r.Name, err)
		}
		pairs[i] = Pair{Key: r.Name, Value: v}
	}

	if m.target == nil {
		return NewGeneric(pairs...), nil
	}
	inst, err := m.target.fromPairs(pairs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	return inst, nil
}
