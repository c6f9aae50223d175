package backoff_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/engine/backoff"
)

func TestNextDelay(t *testing.T) {
	p := backoff.Standard

	assert.Equal(t, 1000*time.Millisecond, p.NextDelay(0))
	assert.Equal(t, 2000*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 4000*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 16000*time.Millisecond, p.NextDelay(4))
	assert.Equal(t, 30000*time.Millisecond, p.NextDelay(5))
	assert.Equal(t, 30000*time.Millisecond, p.NextDelay(63))
	assert.Equal(t, 30000*time.Millisecond, p.NextDelay(1000))
}

func TestNextDelay_CapNeverExceedsDefault(t *testing.T) {
	p := backoff.Policy{BaseDelay: 10 * time.Second, MaxDelay: time.Hour}

	assert.Equal(t, 10*time.Second, p.NextDelay(0))
	assert.Equal(t, 20*time.Second, p.NextDelay(1))
	assert.Equal(t, 30*time.Second, p.NextDelay(2))
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{"network", errors.Join(domain.ErrNetwork, errors.New("dial tcp: refused")), 0, true},
		{"timeout", domain.ErrTimeout, 0, true},
		{"server", domain.NewResponseError(http.StatusInternalServerError, ""), 1, true},
		{"rate limited", domain.NewResponseError(http.StatusTooManyRequests, ""), 0, true},
		{"not found", domain.NewResponseError(http.StatusNotFound, ""), 0, false},
		{"validation", domain.NewResponseError(http.StatusUnprocessableEntity, ""), 0, false},
		{"rejected envelope", domain.ErrRequestRejected, 0, false},
		{"cancelled", context.Canceled, 0, false},
		{"superseded", domain.ErrCancelled, 0, false},
		{"exhausted", domain.ErrNetwork, 2, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoff.ShouldRetry(tt.err, tt.attempt, 2))
		})
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	var delays []time.Duration

	type result struct {
		v   string
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := backoff.Retry(context.Background(), clock, backoff.Report,
			func(context.Context) (string, error) {
				if calls.Add(1) < 3 {
					return "", domain.NewResponseError(http.StatusServiceUnavailable, "")
				}
				return "ok", nil
			},
			func(_ int, d time.Duration, _ error) { delays = append(delays, d) },
		)
		done <- result{v, err}
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "ok", res.v)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	calls := 0

	_, err := backoff.Retry(context.Background(), clock, backoff.Report,
		func(context.Context) (int, error) {
			calls++
			return 0, domain.NewResponseError(http.StatusBadRequest, "bad")
		}, nil)

	require.ErrorIs(t, err, domain.ErrClient)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	done := make(chan error, 1)

	go func() {
		_, err := backoff.Retry(context.Background(), clock, backoff.Realtime,
			func(context.Context) (int, error) {
				calls.Add(1)
				return 0, domain.ErrNetwork
			}, nil)
		done <- err
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	err := <-done
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetry_CancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		_, err := backoff.Retry(ctx, clock, backoff.Report,
			func(context.Context) (int, error) { return 0, domain.ErrServer }, nil)
		done <- err
	}()

	clock.BlockUntil(1)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
}
