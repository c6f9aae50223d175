package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
)

// Subscription keeps an entry alive and delivers its changes to a listener.
type Subscription struct {
	store *Store
	key   domain.QueryKey
	id    uint64
	once  sync.Once
}

// Subscribe registers listener for changes of q's entry and starts a fetch when the entry needs
// one. The listener is called once with the current entry before Subscribe returns.
func (s *Store) Subscribe(q Query, listener Listener) *Subscription {
	s.mu.Lock()
	e := s.ensureLocked(q)

	var notes []notification
	needs := q.Enabled && s.needsFetchLocked(e)
	if needs && e.inflight == nil {
		s.startFetchLocked(e)
		if e.data == nil && e.status != domain.StatusLoading {
			e.status = domain.StatusLoading
			if len(e.listeners) > 0 {
				notes = append(notes, e.notificationLocked())
			}
		}
	}

	s.nextSub++
	id := s.nextSub
	e.listeners[id] = listener
	e.idleSince = time.Time{}
	snap := e.snapshotLocked()
	s.mu.Unlock()

	s.metrics.CountCacheRead(q.Key.Resource(), !needs)
	listener(snap)
	deliver(notes)
	return &Subscription{store: s, key: q.Key, id: id}
}

// Key returns the subscribed key.
func (sub *Subscription) Key() domain.QueryKey {
	return sub.key
}

// Current returns the entry as it stands now.
func (sub *Subscription) Current() domain.CacheEntry {
	e, _ := sub.store.Peek(sub.key)
	return e
}

// Unsubscribe detaches the listener. When the last listener detaches the GC horizon starts and a
// fetch nobody waits for is cancelled. Calling it more than once has no effect.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		s := sub.store
		s.mu.Lock()
		defer s.mu.Unlock()

		e, ok := s.entries[sub.key.Handle()]
		if !ok {
			return
		}
		delete(e.listeners, sub.id)
		if len(e.listeners) == 0 {
			e.idleSince = s.clock.Now()
			s.abandonLocked(e)
		}
	})
}

// Sweep evicts entries without subscribers, holds or fetches in flight whose GC time has elapsed
// since both the last subscriber detached and the last fetch. It returns the number evicted.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	n := 0
	for h, e := range s.entries {
		if len(e.listeners) > 0 || e.holds > 0 || e.inflight != nil {
			continue
		}
		gc := e.query.GCTime
		if now.Sub(e.idleSince) < gc || (!e.fetchedAt.IsZero() && now.Sub(e.fetchedAt) < gc) {
			continue
		}
		delete(s.entries, h)
		n++
	}
	if n > 0 {
		s.metrics.SetEntries(len(s.entries))
	}
	return n
}

// RunGC sweeps every interval until ctx is done.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if n := s.Sweep(); n > 0 {
				s.logger.Info(fmt.Sprintf("evicted %d idle cache entries", n))
			}
		}
	}
}

