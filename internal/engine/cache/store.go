package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unique"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/backoff"
)

// Listener is called with a copy of the entry after every change. It runs outside the store lock.
type Listener func(domain.CacheEntry)

// CommitHook is called after a fetched value has been stored.
type CommitHook func(entry domain.CacheEntry)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCommitHook registers a hook called after each successfully fetched value is stored.
// Values written through SetData, Restore or Seed do not trigger it.
func WithCommitHook(hook CommitHook) StoreOption {
	return func(s *Store) { s.onCommit = hook }
}

// Store is the request cache. Each key owns at most one in-flight fetch.
// Writes are ordered by a per-key generation: a result is applied only when its generation is
// newer than the last applied write and has not been cancelled.
type Store struct {
	root     context.Context
	clock    clockwork.Clock
	logger   ports.Logger
	metrics  ports.Metrics
	tracer   ports.Tracer
	onCommit CommitHook

	mu      sync.Mutex
	entries map[unique.Handle[string]]*entry
	nextSub uint64
	wg      sync.WaitGroup
}

type entry struct {
	key         domain.QueryKey
	query       Query
	data        any
	status      domain.EntryStatus
	fetchedAt   time.Time
	err         error
	invalidated bool
	listeners   map[uint64]Listener
	idleSince   time.Time
	holds       int

	issued   uint64
	applied  uint64
	minValid uint64
	inflight *flight
}

type flight struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	result domain.CacheEntry
	err    error
	// waiters counts blocked Fetch callers.
	waiters int
}

type notification struct {
	listeners []Listener
	entry     domain.CacheEntry
}

// NewStore creates a Store. Background fetches run under root and stop when it is cancelled.
func NewStore(
	root context.Context,
	clock clockwork.Clock,
	logger ports.Logger,
	metrics ports.Metrics,
	tracer ports.Tracer,
	opts ...StoreOption,
) *Store {
	s := &Store{
		root:    root,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		entries: make(map[unique.Handle[string]]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrFetch returns the current entry for q and starts a background fetch when the entry has no
// data, has been invalidated or is stale. Stale data is returned as-is while it is revalidated.
func (s *Store) GetOrFetch(q Query) domain.CacheEntry {
	s.mu.Lock()
	e := s.ensureLocked(q)
	needs := q.Enabled && s.needsFetchLocked(e)
	var notes []notification
	if needs && e.inflight == nil {
		s.startFetchLocked(e)
		if e.data == nil && e.status != domain.StatusLoading {
			e.status = domain.StatusLoading
			notes = append(notes, e.notificationLocked())
		}
	}
	snap := e.snapshotLocked()
	s.mu.Unlock()

	s.metrics.CountCacheRead(q.Key.Resource(), !needs)
	deliver(notes)
	return snap
}

// Fetch loads q now and waits for the result, joining a fetch already in flight for the same key.
// It returns the entry as it stands after the fetch together with the fetch error, if any.
func (s *Store) Fetch(ctx context.Context, q Query) (domain.CacheEntry, error) {
	s.mu.Lock()
	e := s.ensureLocked(q)
	if !q.Enabled {
		snap := e.snapshotLocked()
		s.mu.Unlock()
		return snap, domain.Tag(domain.ErrQueryDisabled, "key", q.Key.String())
	}
	var notes []notification
	f := e.inflight
	if f == nil {
		f = s.startFetchLocked(e)
		if e.data == nil && e.status != domain.StatusLoading {
			e.status = domain.StatusLoading
			notes = append(notes, e.notificationLocked())
		}
	}
	f.waiters++
	s.mu.Unlock()
	deliver(notes)

	select {
	case <-ctx.Done():
		s.mu.Lock()
		f.waiters--
		if e, ok := s.entries[q.Key.Handle()]; ok && e.inflight == f {
			s.abandonLocked(e)
		}
		snap := domain.CacheEntry{Key: q.Key}
		if e, ok := s.entries[q.Key.Handle()]; ok {
			snap = e.snapshotLocked()
		}
		s.mu.Unlock()
		return snap, errors.Join(domain.ErrCancelled, ctx.Err())
	case <-f.done:
		s.mu.Lock()
		f.waiters--
		s.mu.Unlock()
		return f.result, f.err
	}
}

// Peek returns the entry for key without registering or fetching anything.
func (s *Store) Peek(key domain.QueryKey) (domain.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key.Handle()]
	if !ok {
		return domain.CacheEntry{Key: key}, false
	}
	return e.snapshotLocked(), true
}

// Lookup returns the query last registered for key.
func (s *Store) Lookup(key domain.QueryKey) (Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key.Handle()]
	if !ok || e.query.Fetch == nil {
		return Query{}, false
	}
	return e.query, true
}

// Keys returns the keys of every entry selected by pattern.
func (s *Store) Keys(pattern domain.QueryKey) []domain.QueryKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]domain.QueryKey, 0, len(s.entries))
	for _, e := range s.entries {
		if e.key.Matches(pattern) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Invalidate marks every entry selected by pattern as invalidated. Entries that have subscribers
// are refetched in the background; a fetch already in flight for them is superseded.
// It returns the number of entries marked.
func (s *Store) Invalidate(pattern domain.QueryKey) int {
	s.mu.Lock()
	n := 0
	for _, e := range s.entries {
		if !e.key.Matches(pattern) {
			continue
		}
		n++
		e.invalidated = true
		if len(e.listeners) > 0 && e.query.Enabled && e.query.Fetch != nil {
			s.startFetchLocked(e)
		}
	}
	s.mu.Unlock()
	return n
}

// SetData stores data for key as the latest value. Fetches issued before the call are cancelled
// and their results discarded.
func (s *Store) SetData(key domain.QueryKey, data any) domain.CacheEntry {
	s.mu.Lock()
	e := s.ensureLocked(Query{Key: key, GCTime: DefaultGCTime, Enabled: true})
	s.advanceLocked(e)
	e.data = data
	e.status = domain.StatusSuccess
	e.err = nil
	e.fetchedAt = s.clock.Now()
	e.invalidated = false
	note := e.notificationLocked()
	s.mu.Unlock()

	deliver([]notification{note})
	return note.entry
}

// Restore puts a previously taken snapshot back exactly. Fetches issued before the call are
// cancelled and their results discarded.
func (s *Store) Restore(snap domain.CacheEntry) {
	s.mu.Lock()
	e := s.ensureLocked(Query{Key: snap.Key, GCTime: DefaultGCTime, Enabled: true})
	s.advanceLocked(e)
	e.data = snap.Data
	e.status = snap.Status
	e.err = snap.Err
	e.fetchedAt = snap.FetchedAt
	e.invalidated = snap.Invalidated
	note := e.notificationLocked()
	s.mu.Unlock()

	deliver([]notification{note})
}

// Seed stores data fetched at fetchedAt when the entry holds nothing yet. It reports whether the
// value was stored.
func (s *Store) Seed(key domain.QueryKey, data any, fetchedAt time.Time) bool {
	s.mu.Lock()
	e := s.ensureLocked(Query{Key: key, GCTime: DefaultGCTime, Enabled: true})
	if e.data != nil {
		s.mu.Unlock()
		return false
	}
	s.advanceLocked(e)
	e.data = data
	e.status = domain.StatusSuccess
	e.fetchedAt = fetchedAt
	note := e.notificationLocked()
	s.mu.Unlock()

	deliver([]notification{note})
	return true
}

// Cancel cancels the fetch in flight for key. Its result is discarded when it arrives.
func (s *Store) Cancel(key domain.QueryKey) {
	s.mu.Lock()
	e, ok := s.entries[key.Handle()]
	if !ok || e.inflight == nil {
		s.mu.Unlock()
		return
	}
	s.cancelFlightLocked(e)
	var notes []notification
	if e.data == nil && e.status == domain.StatusLoading {
		e.status = domain.StatusIdle
		notes = append(notes, e.notificationLocked())
	}
	s.mu.Unlock()
	deliver(notes)
}

// Hold protects the entry for key from garbage collection until release is called.
func (s *Store) Hold(key domain.QueryKey) (release func()) {
	s.mu.Lock()
	e := s.ensureLocked(Query{Key: key, GCTime: DefaultGCTime, Enabled: true})
	e.holds++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.entries[key.Handle()]; ok && cur == e {
				e.holds--
			}
		})
	}
}

// Wait blocks until every background fetch has finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) ensureLocked(q Query) *entry {
	h := q.Key.Handle()
	if e, ok := s.entries[h]; ok {
		if q.Fetch != nil {
			e.query = q
		}
		return e
	}
	e := &entry{
		key:       q.Key,
		query:     q,
		status:    domain.StatusIdle,
		listeners: make(map[uint64]Listener),
		idleSince: s.clock.Now(),
	}
	s.entries[h] = e
	s.metrics.SetEntries(len(s.entries))
	return e
}

func (s *Store) needsFetchLocked(e *entry) bool {
	if e.query.Fetch == nil {
		return false
	}
	if e.data == nil || e.invalidated {
		return true
	}
	return s.clock.Since(e.fetchedAt) >= e.query.StaleTime
}

// advanceLocked claims a new generation for a direct write and cancels the fetch in flight.
func (s *Store) advanceLocked(e *entry) {
	s.cancelFlightLocked(e)
	e.issued++
	e.applied = e.issued
}

// abandonLocked cancels the fetch of e once nobody is left to receive it: no listener and no
// blocked Fetch caller. A cancelled fetch schedules no further retries.
func (s *Store) abandonLocked(e *entry) {
	f := e.inflight
	if f == nil || len(e.listeners) > 0 || f.waiters > 0 {
		return
	}
	s.cancelFlightLocked(e)
	if e.data == nil && e.status == domain.StatusLoading {
		e.status = domain.StatusIdle
	}
}

func (s *Store) cancelFlightLocked(e *entry) {
	if e.inflight == nil {
		return
	}
	e.minValid = max(e.minValid, e.inflight.gen+1)
	e.inflight.cancel()
	e.inflight = nil
}

func (s *Store) startFetchLocked(e *entry) *flight {
	s.cancelFlightLocked(e)

	e.issued++
	ctx, cancel := context.WithCancel(s.root)
	f := &flight{
		gen:    e.issued,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.inflight = f

	s.wg.Add(1)
	go s.run(ctx, e.key, e.query, e.data, f)
	return f
}

func (s *Store) run(ctx context.Context, key domain.QueryKey, q Query, prev any, f *flight) {
	defer s.wg.Done()
	defer f.cancel()

	resource := key.Resource()
	ctx, span := s.tracer.Start(ctx, "cache.fetch",
		ports.WithAttribute("query.key", key.String()),
		ports.WithAttribute("query.hash", key.Hash()),
	)
	start := s.clock.Now()

	data, err := backoff.Retry(ctx, s.clock, q.Retry,
		func(ctx context.Context) (any, error) {
			return q.Fetch(ctx, prev)
		},
		func(attempt int, delay time.Duration, err error) {
			s.metrics.CountRetry(resource)
			s.logger.Warn(fmt.Sprintf("retrying %s in %s (attempt %d): %v", key, delay, attempt+1, err))
		},
	)

	s.metrics.ObserveFetch(resource, s.clock.Since(start), err)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	s.complete(key, f, data, err)
}

func (s *Store) complete(key domain.QueryKey, f *flight, data any, err error) {
	s.mu.Lock()
	e, ok := s.entries[key.Handle()]
	if !ok {
		f.result = domain.CacheEntry{Key: key}
		f.err = domain.Tag(domain.ErrCancelled, "key", key.String())
		s.mu.Unlock()
		close(f.done)
		return
	}
	if e.inflight == f {
		e.inflight = nil
	}

	var notes []notification
	committed := false
	switch {
	case f.gen <= e.applied || f.gen < e.minValid:
		f.err = domain.Tag(domain.ErrCancelled, "key", key.String())
	case domain.Classify(err) == domain.KindCancelled:
		f.err = err
	case err != nil:
		e.applied = f.gen
		e.status = domain.StatusError
		e.err = err
		f.err = err
		notes = append(notes, e.notificationLocked())
	default:
		e.applied = f.gen
		e.data = data
		e.status = domain.StatusSuccess
		e.err = nil
		e.fetchedAt = s.clock.Now()
		e.invalidated = false
		committed = true
		notes = append(notes, e.notificationLocked())
	}
	if f.err != nil && e.inflight == nil && e.data == nil && e.status == domain.StatusLoading &&
		domain.Classify(f.err) == domain.KindCancelled {
		e.status = domain.StatusIdle
		notes = append(notes, e.notificationLocked())
	}
	f.result = e.snapshotLocked()
	s.mu.Unlock()
	close(f.done)

	deliver(notes)
	if committed && s.onCommit != nil {
		s.onCommit(f.result)
	}
}

func (e *entry) snapshotLocked() domain.CacheEntry {
	return domain.CacheEntry{
		Key:         e.key,
		Data:        e.data,
		Status:      e.status,
		FetchedAt:   e.fetchedAt,
		Err:         e.err,
		Subscribers: len(e.listeners),
		Invalidated: e.invalidated,
		Fetching:    e.inflight != nil,
	}
}

func (e *entry) notificationLocked() notification {
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	return notification{listeners: listeners, entry: e.snapshotLocked()}
}

func deliver(notes []notification) {
	for _, n := range notes {
		for _, l := range n.listeners {
			l(n.entry)
		}
	}
}
