package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/adapters/config"
	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/adapters/notify"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/tillsync/internal/engine/mutation"
	"go.trai.ch/tillsync/internal/engine/poller"
)

// gcInterval is how often idle cache entries are collected.
const gcInterval = time.Minute

// Session owns the sync engine of one command: the request cache, the mutation executor and the
// poll scheduler, all sharing one root context.
type Session struct {
	Store    *cache.Store
	Executor *mutation.Executor
	Poller   *poller.Poller
	Catalog  *Catalog

	settings  *config.Settings
	backend   *httpapi.Backend
	clock     clockwork.Clock
	logger    ports.Logger
	notifier  *notify.Queue
	snapshots ports.SnapshotStore

	mu       sync.Mutex
	warmable map[string]domain.Snapshot

	cancel context.CancelFunc
	gcDone chan struct{}
}

// NewSession creates a Session. When snapshots is not nil, stored snapshots younger than the
// configured max age are loaded for warm starts and every fetched value is persisted.
func NewSession(
	ctx context.Context,
	settings *config.Settings,
	backend *httpapi.Backend,
	clock clockwork.Clock,
	logger ports.Logger,
	metrics ports.Metrics,
	tracer ports.Tracer,
	notifier *notify.Queue,
	snapshots ports.SnapshotStore,
) *Session {
	root, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		settings:  settings,
		backend:   backend,
		clock:     clock,
		logger:    logger,
		notifier:  notifier,
		snapshots: snapshots,
		warmable:  make(map[string]domain.Snapshot),
		cancel:    cancel,
		gcDone:    make(chan struct{}),
	}

	var opts []cache.StoreOption
	if snapshots != nil {
		opts = append(opts, cache.WithCommitHook(s.persist))
		s.loadSnapshots(ctx)
	}

	s.Store = cache.NewStore(root, clock, logger, metrics, tracer, opts...)
	s.Executor = mutation.NewExecutor(s.Store, clock, logger, metrics, tracer, notifier,
		settings.Mutation.RevalidateWindow)
	s.Poller = poller.NewPoller(root, s.Store, clock, logger, notifier)
	s.Catalog = NewCatalog(backend, settings)

	notifier.SetRetry(func(ctx context.Context, key domain.QueryKey) error {
		return s.Poller.TriggerManualRefresh(ctx, key)
	})

	go func() {
		defer close(s.gcDone)
		_ = s.Store.RunGC(root, gcInterval)
	}()
	return s
}

// Close stops polling and background fetches and waits for them to exit.
func (s *Session) Close() {
	s.Poller.Stop()
	s.cancel()
	<-s.gcDone
	s.Store.Wait()
}

func (s *Session) loadSnapshots(ctx context.Context) {
	if maxAge := s.settings.Snapshot.MaxAge; maxAge > 0 {
		n, err := s.snapshots.Prune(ctx, s.clock.Now().Add(-maxAge))
		if err != nil {
			s.logger.Error(err)
		} else if n > 0 {
			s.logger.Info(fmt.Sprintf("dropped %d expired snapshots", n))
		}
	}

	snaps, err := s.snapshots.Load(ctx)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("starting without snapshots: %v", err))
		return
	}
	for _, snap := range snaps {
		s.warmable[snap.KeyHash] = snap
	}
}

// warm seeds the entry of q from its stored snapshot, once. The snapshot keeps its original fetch
// time, so the seeded value is revalidated as soon as q is read.
func (s *Session) warm(q cache.Query) {
	hash := q.Key.Hash()
	s.mu.Lock()
	snap, ok := s.warmable[hash]
	delete(s.warmable, hash)
	s.mu.Unlock()
	if !ok || snap.Key != q.Key.String() {
		return
	}

	data, err := s.Catalog.Decode(snap.Resource, snap.Payload)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("ignoring snapshot of %s: %v", snap.Key, err))
		return
	}
	s.Store.Seed(q.Key, data, snap.FetchedAt)
}

func (s *Session) persist(e domain.CacheEntry) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("not persisting %s: %v", e.Key, err))
		return
	}
	snap := domain.Snapshot{
		KeyHash:   e.Key.Hash(),
		Key:       e.Key.String(),
		Resource:  e.Key.Resource(),
		Payload:   payload,
		FetchedAt: e.FetchedAt,
	}
	if err := s.snapshots.Save(context.Background(), snap); err != nil {
		s.logger.Error(err)
	}
}

// ensure returns a fresh entry of q. When the fetch fails, the last known data is used if there is any.
func (s *Session) ensure(ctx context.Context, q cache.Query) (domain.CacheEntry, error) {
	s.warm(q)
	if e, ok := s.Store.Peek(q.Key); ok && e.HasData() && !e.Invalidated &&
		s.clock.Since(e.FetchedAt) < q.StaleTime {
		return e, nil
	}
	e, err := s.Store.Fetch(ctx, q)
	if err != nil {
		if !e.HasData() || domain.Classify(err) == domain.KindCancelled {
			return e, err
		}
		s.logger.Warn(fmt.Sprintf("using last known %s: %v", q.Key, err))
	}
	return e, nil
}

// Controls returns the renderer controls of view.
func (s *Session) Controls(view *View) ports.Controls {
	return &controls{session: s, view: view}
}

type controls struct {
	session *Session
	view    *View
}

func (c *controls) Refresh(ctx context.Context) error {
	return c.view.Refresh(ctx)
}

func (c *controls) SetForeground(foreground bool) {
	c.session.Poller.SetForeground(foreground)
}

func (c *controls) Dismiss(id string) {
	c.session.notifier.Dismiss(id)
}

func (c *controls) Retry(ctx context.Context, id string) error {
	return c.session.notifier.Retry(ctx, id)
}
