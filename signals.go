package morph

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for mapping events.
var (
	SignalMappingBuilt  = capitan.NewSignal("morph.mapping.built", "Mapping declaration finalized")
	SignalApplyStart    = capitan.NewSignal("morph.apply.start", "Apply operation beginning")
	SignalApplyComplete = capitan.NewSignal("morph.apply.complete", "Apply operation finished")
)

// Keys for typed event data.
var (
	KeyMapping    = capitan.NewStringKey("mapping")
	KeySchema     = capitan.NewStringKey("schema")
	KeyFieldCount = capitan.NewIntKey("field_count")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

// emitMappingBuilt emits an event when a mapping is built.
func emitMappingBuilt(ctx context.Context, mapping, schema string, fields int) {
	capitan.Emit(ctx, SignalMappingBuilt,
		KeyMapping.Field(mapping),
		KeySchema.Field(schema),
		KeyFieldCount.Field(fields),
	)
}

// emitApplyStart emits an event when apply begins.
func emitApplyStart(ctx context.Context, mapping, schema string) {
	capitan.Emit(ctx, SignalApplyStart,
		KeyMapping.Field(mapping),
		KeySchema.Field(schema),
	)
}

// emitApplyComplete emits an event when apply finishes.
func emitApplyComplete(ctx context.Context, mapping, schema string, count int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyMapping.Field(mapping),
		KeySchema.Field(schema),
		KeyFieldCount.Field(count),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalApplyComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalApplyComplete, fields...)
	}
}
