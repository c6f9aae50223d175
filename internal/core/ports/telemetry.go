package ports

import (
	"context"
	"time"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute on the span when it starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Metrics records engine counters and latencies.
type Metrics interface {
	// ObserveFetch records a completed fetch for resource. err is nil on success.
	ObserveFetch(resource string, elapsed time.Duration, err error)
	// CountCacheRead records a read served from a fresh entry (hit) or one that needed a fetch.
	CountCacheRead(resource string, hit bool)
	// CountRetry records a scheduled retry.
	CountRetry(resource string)
	// CountMutation records a mutation outcome ("committed", "rolled_back", "conflict", "rejected").
	CountMutation(resource, outcome string)
	// SetEntries reports the number of live cache entries.
	SetEntries(n int)
}
