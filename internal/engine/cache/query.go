// Package cache implements the keyed request cache that backs every live view.
package cache

import (
	"context"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/engine/backoff"
)

const (
	// DefaultGCTime is how long an unobserved entry is kept before it is evicted.
	DefaultGCTime = 5 * time.Minute
)

// FetchFunc loads the value for a query. prev is the currently stored value, or nil.
type FetchFunc func(ctx context.Context, prev any) (any, error)

// Query describes how to load and how long to trust one cached value.
type Query struct {
	Key   domain.QueryKey
	Fetch FetchFunc
	// StaleTime is how long a stored value counts as fresh. Zero means always stale.
	StaleTime time.Duration
	// GCTime is how long the entry survives without subscribers.
	GCTime  time.Duration
	Retry   backoff.Policy
	Enabled bool
}

// Option configures a Query.
type Option func(*Query)

// NewQuery creates an enabled query with the standard retry policy and the default GC time.
func NewQuery(key domain.QueryKey, fetch FetchFunc, opts ...Option) Query {
	q := Query{
		Key:     key,
		Fetch:   fetch,
		GCTime:  DefaultGCTime,
		Retry:   backoff.Standard,
		Enabled: true,
	}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// WithStaleTime sets how long a stored value counts as fresh.
func WithStaleTime(d time.Duration) Option {
	return func(q *Query) { q.StaleTime = d }
}

// WithGCTime sets how long an unobserved entry is kept.
func WithGCTime(d time.Duration) Option {
	return func(q *Query) { q.GCTime = d }
}

// WithRetry sets the retry policy.
func WithRetry(p backoff.Policy) Option {
	return func(q *Query) { q.Retry = p }
}

// WithEnabled enables or disables fetching.
func WithEnabled(enabled bool) Option {
	return func(q *Query) { q.Enabled = enabled }
}

// Data returns the entry's value as T.
func Data[T any](e domain.CacheEntry) (T, bool) {
	v, ok := e.Data.(T)
	return v, ok
}
