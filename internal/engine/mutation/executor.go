// Package mutation applies optimistic writes to the request cache and reconciles them with the backend.
package mutation

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unique"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/backoff"
	"go.trai.ch/tillsync/internal/engine/cache"
)

// DefaultRevalidateWindow is how long dependent keys wait for further mutations before they are refetched.
const DefaultRevalidateWindow = 500 * time.Millisecond

// Outcomes reported to ports.Metrics.CountMutation.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeConflict   = "conflict"
	OutcomeRejected   = "rejected"
)

// Mutation describes one optimistic write against a cached key.
type Mutation struct {
	// Name labels the mutation in logs and notifications, e.g. "order.confirm".
	Name string
	Key  domain.QueryKey

	// Precheck validates the current entry before anything is written.
	Precheck func(current domain.CacheEntry) error
	// Optimistic derives the value shown while the backend call is in flight. It must not modify current.
	Optimistic func(current any) (any, error)
	// Remote performs the backend call. idempotencyKey is the same for every retry.
	Remote func(ctx context.Context, idempotencyKey string) (any, error)
	// Merge combines the current value with the server's answer. The server wins on conflict.
	// When nil the optimistic value stays until dependent keys are revalidated.
	Merge func(current, server any) any

	// Invalidates lists keys or patterns revalidated after a successful commit.
	Invalidates []domain.QueryKey
	Retry       backoff.Policy
}

// Executor runs mutations with at most one in flight per key.
type Executor struct {
	store    *cache.Store
	clock    clockwork.Clock
	logger   ports.Logger
	metrics  ports.Metrics
	tracer   ports.Tracer
	notifier ports.Notifier
	debounce *Debouncer

	mu       sync.Mutex
	inflight map[unique.Handle[string]]struct{}
}

// NewExecutor creates an Executor writing to store. Dependent keys of committed mutations are
// invalidated once window has passed without further commits.
func NewExecutor(
	store *cache.Store,
	clock clockwork.Clock,
	logger ports.Logger,
	metrics ports.Metrics,
	tracer ports.Tracer,
	notifier ports.Notifier,
	window time.Duration,
) *Executor {
	e := &Executor{
		store:    store,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		notifier: notifier,
		inflight: make(map[unique.Handle[string]]struct{}),
	}
	e.debounce = NewDebouncer(clock, window, e.revalidate)
	return e
}

// Mutate runs m. It returns the committed value, or the error after the entry has been restored
// to its state before the mutation.
func (e *Executor) Mutate(ctx context.Context, m Mutation) (any, error) {
	resource := m.Key.Resource()
	if !e.claim(m.Key) {
		e.metrics.CountMutation(resource, OutcomeConflict)
		err := domain.Tag(domain.ErrMutationConflict, "key", m.Key.String())
		e.notify(m, err)
		return nil, err
	}
	defer e.unclaim(m.Key)

	release := e.store.Hold(m.Key)
	defer release()

	ctx, span := e.tracer.Start(ctx, "mutation."+m.Name,
		ports.WithAttribute("query.key", m.Key.String()),
	)
	defer span.End()

	snapshot, _ := e.store.Peek(m.Key)

	if m.Precheck != nil {
		if err := m.Precheck(snapshot); err != nil {
			e.metrics.CountMutation(resource, OutcomeRejected)
			span.RecordError(err)
			e.notify(m, err)
			return nil, err
		}
	}

	if m.Optimistic != nil {
		next, err := m.Optimistic(snapshot.Data)
		if err != nil {
			e.metrics.CountMutation(resource, OutcomeRejected)
			span.RecordError(err)
			e.notify(m, err)
			return nil, err
		}
		e.store.SetData(m.Key, next)
	} else {
		e.store.Cancel(m.Key)
	}

	idempotencyKey := uuid.NewString()
	span.SetAttribute("mutation.idempotency_key", idempotencyKey)

	server, err := backoff.Retry(ctx, e.clock, m.Retry,
		func(ctx context.Context) (any, error) {
			return m.Remote(ctx, idempotencyKey)
		},
		func(attempt int, delay time.Duration, err error) {
			e.metrics.CountRetry(resource)
			e.logger.Warn(fmt.Sprintf("retrying %s in %s (attempt %d): %v", m.Name, delay, attempt+1, err))
		},
	)
	if err != nil {
		e.store.Restore(snapshot)
		e.metrics.CountMutation(resource, OutcomeRolledBack)
		span.RecordError(err)
		e.notify(m, err)
		return nil, domain.Tag(err, "mutation", m.Name)
	}

	committed := server
	if m.Merge != nil {
		current, _ := e.store.Peek(m.Key)
		committed = m.Merge(current.Data, server)
		e.store.SetData(m.Key, committed)
	}
	e.metrics.CountMutation(resource, OutcomeCommitted)
	e.debounce.Add(m.Invalidates...)
	return committed, nil
}

// Flush revalidates every pending dependent key now.
func (e *Executor) Flush() {
	e.debounce.Flush()
}

// InFlight reports whether a mutation for key is running.
func (e *Executor) InFlight(key domain.QueryKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[key.Handle()]
	return ok
}

func (e *Executor) claim(key domain.QueryKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := key.Handle()
	if _, busy := e.inflight[h]; busy {
		return false
	}
	e.inflight[h] = struct{}{}
	return true
}

func (e *Executor) unclaim(key domain.QueryKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key.Handle())
}

func (e *Executor) revalidate(keys []domain.QueryKey) {
	for _, k := range keys {
		e.store.Invalidate(k)
	}
}

func (e *Executor) notify(m Mutation, err error) {
	kind := domain.Classify(err)
	if kind == domain.KindCancelled {
		return
	}
	e.logger.Error(err)
	e.notifier.Notify(domain.Notification{
		ID:        uuid.NewString(),
		Severity:  domain.SeverityError,
		Title:     m.Name + " failed",
		Message:   err.Error(),
		Key:       m.Key,
		Kind:      kind,
		Retryable: kind.Transient(),
		CreatedAt: e.clock.Now(),
	})
}
