// Package backoff implements the retry policy used for backend requests.
package backoff

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
)

const (
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay caps every delay.
	DefaultMaxDelay = 30 * time.Second
)

// Policy describes how often and how patiently a failed request is retried.
type Policy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// MaxAttempts is the number of retries after the initial attempt.
	MaxAttempts int
}

var (
	// Realtime retries once; used for live views polled every few seconds.
	Realtime = Policy{BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay, MaxAttempts: 1}
	// Standard retries twice.
	Standard = Policy{BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay, MaxAttempts: 2}
	// Report retries three times; reports are expensive and rarely refreshed.
	Report = Policy{BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay, MaxAttempts: 3}
	// None never retries.
	None = Policy{BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay}
)

// NextDelay returns the wait before retry number attempt (0-based): min(BaseDelay·2^attempt, MaxDelay).
// MaxDelay is never larger than DefaultMaxDelay.
func (p Policy) NextDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	limit := p.MaxDelay
	if limit <= 0 || limit > DefaultMaxDelay {
		limit = DefaultMaxDelay
	}
	if attempt < 0 {
		attempt = 0
	}

	delay := base
	for range attempt {
		if delay >= limit {
			return limit
		}
		delay *= 2
	}
	return min(delay, limit)
}

// ShouldRetry reports whether a request that failed with err after attempt previous failures
// (0-based) may be retried under maxAttempts.
func ShouldRetry(err error, attempt, maxAttempts int) bool {
	if err == nil || attempt >= maxAttempts {
		return false
	}
	return domain.Classify(err).Transient()
}

// Retry runs op until it succeeds, fails permanently or runs out of attempts.
// onRetry, when non-nil, is called before each wait with the 0-based retry number, the delay and the error.
func Retry[T any](
	ctx context.Context,
	clock clockwork.Clock,
	p Policy,
	op func(ctx context.Context) (T, error),
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !ShouldRetry(err, attempt, p.MaxAttempts) {
			return v, err
		}

		delay := p.NextDelay(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-clock.After(delay):
		}
	}
}
