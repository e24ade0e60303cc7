package morph

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// telemetry holds the optional OpenTelemetry instruments of a mapping.
// They are created once when the mapping is built.
type telemetry struct {
	tracer trace.Tracer

	// count increments for each top-level Apply
	count metric.Int64Counter

	// duration records Apply duration in milliseconds
	duration metric.Float64Histogram
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*telemetry, error) {
	if tracer == nil && meter == nil {
		return nil, nil
	}
	t := &telemetry{tracer: tracer}
	if meter == nil {
		return t, nil
	}

	var err error
	t.count, err = meter.Int64Counter(
		"morph.apply.count",
		metric.WithDescription("Number of mapping applications"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create count counter: %w", err)
	}

	t.duration, err = meter.Float64Histogram(
		"morph.apply.duration",
		metric.WithDescription("Mapping application duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return t, nil
}

// start opens a span for an Apply and returns a function recording its
// outcome. A nil telemetry is a no-op.
func (t *telemetry) start(ctx context.Context, m *Mapping) (context.Context, func(error)) {
	if t == nil {
		return ctx, func(error) {}
	}

	began := time.Now()
	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.Start(ctx, "morph.apply")
		span.SetAttributes(
			attribute.String("morph.mapping", m.name),
			attribute.String("morph.schema", m.targetName()),
			attribute.Int("morph.rule_count", len(m.rules)),
		)
	}

	return ctx, func(err error) {
		attrs := metric.WithAttributes(
			attribute.String("morph.mapping", m.name),
			attribute.Bool("morph.error", err != nil),
		)
		if t.count != nil {
			t.count.Add(ctx, 1, attrs)
		}
		if t.duration != nil {
			t.duration.Record(ctx, float64(time.Since(began).Microseconds())/1000, attrs)
		}

		if span == nil {
			return
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
