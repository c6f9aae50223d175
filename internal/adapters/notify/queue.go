// Package notify keeps the dismissible notifications shown beside the live views.
package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultLimit is the number of notifications kept before the oldest is dropped.
const DefaultLimit = 5

// ErrNotRetryable is returned by Retry for notifications without a retry action.
var ErrNotRetryable = zerr.New("notification has no retry action")

// RetryFunc re-runs the failed work of a notification.
type RetryFunc func(ctx context.Context, key domain.QueryKey) error

// Queue implements ports.Notifier. A notification for the same key and kind as an active one
// replaces it instead of stacking.
type Queue struct {
	clock clockwork.Clock
	limit int

	mu        sync.Mutex
	items     []domain.Notification
	listeners []func([]domain.Notification)
	retry     RetryFunc
}

// NewQueue creates a queue holding at most limit notifications.
func NewQueue(clock clockwork.Clock, limit int) *Queue {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Queue{clock: clock, limit: limit}
}

// OnChange registers fn to receive the active notifications after every change.
func (q *Queue) OnChange(fn func([]domain.Notification)) {
	q.mu.Lock()
	q.listeners = append(q.listeners, fn)
	q.mu.Unlock()
}

// SetRetry installs the action run by Retry.
func (q *Queue) SetRetry(fn RetryFunc) {
	q.mu.Lock()
	q.retry = fn
	q.mu.Unlock()
}

// Notify adds n, assigning an id and a timestamp when missing.
func (q *Queue) Notify(n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = q.clock.Now()
	}

	q.mu.Lock()
	if !n.Key.IsZero() {
		q.items = slices.DeleteFunc(q.items, func(cur domain.Notification) bool {
			return cur.Key.String() == n.Key.String() && cur.Kind == n.Kind
		})
	}
	q.items = append(q.items, n)
	if over := len(q.items) - q.limit; over > 0 {
		q.items = slices.Delete(q.items, 0, over)
	}
	q.publishLocked()
}

// Dismiss removes the notification with id.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	before := len(q.items)
	q.items = slices.DeleteFunc(q.items, func(n domain.Notification) bool { return n.ID == id })
	if len(q.items) == before {
		q.mu.Unlock()
		return false
	}
	q.publishLocked()
	return true
}

// DismissKey removes every notification about key, e.g. once it refreshed successfully.
func (q *Queue) DismissKey(key domain.QueryKey) int {
	q.mu.Lock()
	before := len(q.items)
	q.items = slices.DeleteFunc(q.items, func(n domain.Notification) bool {
		return !n.Key.IsZero() && n.Key.String() == key.String()
	})
	removed := before - len(q.items)
	if removed == 0 {
		q.mu.Unlock()
		return 0
	}
	q.publishLocked()
	return removed
}

// Active returns a copy of the notifications, oldest first.
func (q *Queue) Active() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Retry dismisses the notification with id and runs the retry action for its key.
func (q *Queue) Retry(ctx context.Context, id string) error {
	q.mu.Lock()
	idx := slices.IndexFunc(q.items, func(n domain.Notification) bool { return n.ID == id })
	if idx < 0 {
		q.mu.Unlock()
		return domain.Tag(ErrNotRetryable, "id", id)
	}
	n := q.items[idx]
	retry := q.retry
	if !n.Retryable || n.Key.IsZero() || retry == nil {
		q.mu.Unlock()
		return domain.Tag(ErrNotRetryable, "id", id)
	}
	q.items = slices.Delete(q.items, idx, idx+1)
	q.publishLocked()

	return retry(ctx, n.Key)
}

// publishLocked releases q.mu before calling listeners.
func (q *Queue) publishLocked() {
	items := slices.Clone(q.items)
	listeners := slices.Clone(q.listeners)
	q.mu.Unlock()
	for _, fn := range listeners {
		fn(items)
	}
}
