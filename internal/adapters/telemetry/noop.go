package telemetry

import (
	"context"
	"time"

	"go.trai.ch/tillsync/internal/core/ports"
)

// NoOpTracer is a no-op implementation of ports.Tracer.
type NoOpTracer struct{}

// NewNoOpTracer creates a new NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns ctx and a span that records nothing.
func (t *NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, &NoOpSpan{}
}

// NoOpSpan is a no-op implementation of ports.Span.
type NoOpSpan struct{}

// End does nothing.
func (s *NoOpSpan) End() {}

// RecordError does nothing.
func (s *NoOpSpan) RecordError(_ error) {}

// SetAttribute does nothing.
func (s *NoOpSpan) SetAttribute(_ string, _ any) {}

// NoOpMetrics discards every measurement.
type NoOpMetrics struct{}

func (NoOpMetrics) ObserveFetch(string, time.Duration, error) {}
func (NoOpMetrics) CountCacheRead(string, bool)               {}
func (NoOpMetrics) CountRetry(string)                         {}
func (NoOpMetrics) CountMutation(string, string)              {}
func (NoOpMetrics) SetEntries(int)                            {}
