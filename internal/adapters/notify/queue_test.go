package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/adapters/notify"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

var _ ports.Notifier = (*notify.Queue)(nil)

var tablesKey = domain.NewQueryKey("tables", "outlet", "3")

func TestNotify_AssignsIDAndTime(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	q := notify.NewQueue(clock, 0)

	q.Notify(domain.Notification{Title: "Tables unavailable"})

	got := q.Active()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, clock.Now(), got[0].CreatedAt)
}

func TestNotify_ReplacesSameKeyAndKind(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)

	q.Notify(domain.Notification{Key: tablesKey, Kind: domain.KindNetwork, Message: "first"})
	q.Notify(domain.Notification{Key: tablesKey, Kind: domain.KindNetwork, Message: "second"})
	q.Notify(domain.Notification{Key: tablesKey, Kind: domain.KindServer, Message: "other kind"})

	got := q.Active()
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message)
	assert.Equal(t, "other kind", got[1].Message)
}

func TestNotify_DropsOldestOverLimit(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 2)

	for _, msg := range []string{"a", "b", "c"} {
		q.Notify(domain.Notification{Message: msg})
	}

	got := q.Active()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Message)
	assert.Equal(t, "c", got[1].Message)
}

func TestDismiss(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)
	q.Notify(domain.Notification{ID: "n1"})

	assert.True(t, q.Dismiss("n1"))
	assert.False(t, q.Dismiss("n1"))
	assert.Empty(t, q.Active())
}

func TestDismissKey(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)
	q.Notify(domain.Notification{Key: tablesKey, Kind: domain.KindNetwork})
	q.Notify(domain.Notification{Key: tablesKey, Kind: domain.KindServer})
	q.Notify(domain.Notification{Title: "unrelated"})

	assert.Equal(t, 2, q.DismissKey(tablesKey))
	assert.Zero(t, q.DismissKey(tablesKey))
	assert.Len(t, q.Active(), 1)
}

func TestOnChange(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)
	var seen [][]domain.Notification
	q.OnChange(func(items []domain.Notification) { seen = append(seen, items) })

	q.Notify(domain.Notification{ID: "n1"})
	q.Dismiss("n1")

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Empty(t, seen[1])
}

func TestRetry(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)
	var retried []domain.QueryKey
	q.SetRetry(func(_ context.Context, key domain.QueryKey) error {
		retried = append(retried, key)
		return nil
	})
	q.Notify(domain.Notification{ID: "n1", Key: tablesKey, Retryable: true})

	require.NoError(t, q.Retry(context.Background(), "n1"))

	assert.Equal(t, []domain.QueryKey{tablesKey}, retried)
	assert.Empty(t, q.Active())
}

func TestRetry_ReturnsActionError(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)
	boom := errors.New("boom")
	q.SetRetry(func(context.Context, domain.QueryKey) error { return boom })
	q.Notify(domain.Notification{ID: "n1", Key: tablesKey, Retryable: true})

	require.ErrorIs(t, q.Retry(context.Background(), "n1"), boom)
}

func TestRetry_NotRetryable(t *testing.T) {
	q := notify.NewQueue(clockwork.NewFakeClock(), 0)
	q.SetRetry(func(context.Context, domain.QueryKey) error { return nil })
	q.Notify(domain.Notification{ID: "conflict", Key: tablesKey})

	require.ErrorIs(t, q.Retry(context.Background(), "conflict"), notify.ErrNotRetryable)
	require.ErrorIs(t, q.Retry(context.Background(), "missing"), notify.ErrNotRetryable)
	assert.Len(t, q.Active(), 1, "a notification without retry action stays")
}
