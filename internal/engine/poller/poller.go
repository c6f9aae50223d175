// Package poller keeps live views fresh by refetching their queries on a fixed interval and on demand.
package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unique"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is the refetch interval of live views.
const DefaultInterval = 30 * time.Second

// RefreshKeys are the key names that trigger a manual refresh of every live view.
var RefreshKeys = []string{"r", "f5"}

// IsRefreshKey reports whether a key press names a manual refresh.
func IsRefreshKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range RefreshKeys {
		if key == k {
			return true
		}
	}
	return false
}

// Poller schedules interval refetches for subscribed queries.
// Timer ticks and manual refreshes of the same key share one round-trip.
type Poller struct {
	root     context.Context
	store    *cache.Store
	clock    clockwork.Clock
	logger   ports.Logger
	notifier ports.Notifier
	group    singleflight.Group

	mu         sync.Mutex
	foreground bool
	schedules  map[unique.Handle[string]]*Subscription
	wg         sync.WaitGroup
}

// Subscription is a scheduled query. Unsubscribe stops the polling and detaches the listener.
type Subscription struct {
	*cache.Subscription
	query    cache.Query
	interval time.Duration
	cancel   context.CancelFunc
	once     sync.Once
	poller   *Poller
}

// NewPoller creates a Poller in the foreground. Polling stops when root is cancelled.
func NewPoller(
	root context.Context,
	store *cache.Store,
	clock clockwork.Clock,
	logger ports.Logger,
	notifier ports.Notifier,
) *Poller {
	return &Poller{
		root:       root,
		store:      store,
		clock:      clock,
		logger:     logger,
		notifier:   notifier,
		foreground: true,
		schedules:  make(map[unique.Handle[string]]*Subscription),
	}
}

// Schedule subscribes listener to q and refetches q every interval while the dashboard is in the
// foreground and q is enabled. A non-positive interval uses DefaultInterval.
// Scheduling a key that is already scheduled replaces the earlier schedule.
func (p *Poller) Schedule(q cache.Query, interval time.Duration, listener cache.Listener) *Subscription {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(p.root)
	sub := &Subscription{
		query:    q,
		interval: interval,
		cancel:   cancel,
		poller:   p,
	}

	// The new listener attaches before the replaced one detaches, so a fetch in flight is kept.
	sub.Subscription = p.store.Subscribe(q, listener)

	p.mu.Lock()
	prev := p.schedules[q.Key.Handle()]
	p.schedules[q.Key.Handle()] = sub
	p.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}

	p.wg.Add(1)
	go p.loop(ctx, sub)
	return sub
}

// Unsubscribe stops polling and detaches the listener. Calling it more than once has no effect.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		if s.Subscription != nil {
			s.Subscription.Unsubscribe()
		}

		p := s.poller
		p.mu.Lock()
		if p.schedules[s.query.Key.Handle()] == s {
			delete(p.schedules, s.query.Key.Handle())
		}
		p.mu.Unlock()
	})
}

// Interval returns the refetch interval.
func (s *Subscription) Interval() time.Duration {
	return s.interval
}

// SetForeground records whether the dashboard is visible. Ticks are skipped in the background;
// coming back to the foreground refetches every scheduled query that has gone stale.
func (p *Poller) SetForeground(foreground bool) {
	p.mu.Lock()
	was := p.foreground
	p.foreground = foreground
	var stale []cache.Query
	if foreground && !was {
		for _, s := range p.schedules {
			stale = append(stale, s.query)
		}
	}
	p.mu.Unlock()

	for _, q := range stale {
		if q.Enabled {
			p.store.GetOrFetch(q)
		}
	}
}

// Foreground reports whether the dashboard is visible.
func (p *Poller) Foreground() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.foreground
}

// TriggerManualRefresh refetches the given keys now, regardless of staleness or foreground state,
// and waits for all of them. The errors of every failed key are joined. Without keys every
// scheduled query is refreshed.
func (p *Poller) TriggerManualRefresh(ctx context.Context, keys ...domain.QueryKey) error {
	queries, err := p.resolve(keys)
	if err != nil {
		return err
	}

	// Keys are refreshed independently; one failure does not cut the others short.
	var g errgroup.Group
	errs := make([]error, len(queries))
	for i, q := range queries {
		g.Go(func() error {
			errs[i] = p.refresh(ctx, q)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Scheduled returns the keys with an active schedule.
func (p *Poller) Scheduled() []domain.QueryKey {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]domain.QueryKey, 0, len(p.schedules))
	for _, s := range p.schedules {
		keys = append(keys, s.query.Key)
	}
	return keys
}

// Stop ends every schedule and waits for the polling goroutines to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	subs := make([]*Subscription, 0, len(p.schedules))
	for _, s := range p.schedules {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	p.wg.Wait()
}

func (p *Poller) resolve(keys []domain.QueryKey) ([]cache.Query, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(keys) == 0 {
		queries := make([]cache.Query, 0, len(p.schedules))
		for _, s := range p.schedules {
			queries = append(queries, s.query)
		}
		return queries, nil
	}

	queries := make([]cache.Query, 0, len(keys))
	for _, k := range keys {
		if s, ok := p.schedules[k.Handle()]; ok {
			queries = append(queries, s.query)
			continue
		}
		q, ok := p.store.Lookup(k)
		if !ok {
			return nil, domain.Tag(domain.ErrQueryNotRegistered, "key", k.String())
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func (p *Poller) loop(ctx context.Context, s *Subscription) {
	defer p.wg.Done()

	ticker := p.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !s.query.Enabled || !p.Foreground() {
				continue
			}
			if err := p.refresh(ctx, s.query); err != nil {
				p.report(s.query.Key, err)
			}
		}
	}
}

// refresh fetches q, sharing the round-trip with any concurrent refresh of the same key.
func (p *Poller) refresh(ctx context.Context, q cache.Query) error {
	if !q.Enabled {
		return nil
	}
	_, err, _ := p.group.Do(q.Key.String(), func() (any, error) {
		_, err := p.store.Fetch(ctx, q)
		return nil, err
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "refresh failed"), "key", q.Key.String())
	}
	return nil
}

func (p *Poller) report(key domain.QueryKey, err error) {
	kind := domain.Classify(err)
	if kind == domain.KindCancelled {
		return
	}
	p.logger.Error(err)
	p.notifier.Notify(domain.Notification{
		ID:        uuid.NewString(),
		Severity:  domain.SeverityWarning,
		Title:     "Could not refresh " + key.Resource(),
		Message:   err.Error(),
		Key:       key,
		Kind:      kind,
		Retryable: kind.Transient(),
		CreatedAt: p.clock.Now(),
	})
}
