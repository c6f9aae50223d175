package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/cache"
)

// Panel is one live section of a view.
type Panel struct {
	Title string
	Query cache.Query
	// Interval is the poll interval. Zero subscribes without polling.
	Interval time.Duration
	// Render turns the cached value into board lines.
	Render func(now time.Time, data any) []string
}

type unsubscriber interface {
	Unsubscribe()
}

// View is a role dashboard. Every entry change of its panels is reconciled into a new board
// through a single listener.
type View struct {
	Role   domain.Role
	Title  string
	panels []Panel

	session *Session
	clock   clockwork.Clock

	// pub keeps boards in the order their entries were reconciled.
	pub     sync.Mutex
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	subs    []unsubscriber
	onBoard func(ports.Board)
}

func newView(s *Session, role domain.Role, title string, panels ...Panel) *View {
	return &View{
		Role:    role,
		Title:   title,
		panels:  panels,
		session: s,
		clock:   s.clock,
		entries: make(map[string]domain.CacheEntry, len(panels)),
	}
}

// Panels returns the panels of the view.
func (v *View) Panels() []Panel {
	return v.panels
}

// Keys returns the query keys of every panel.
func (v *View) Keys() []domain.QueryKey {
	keys := make([]domain.QueryKey, 0, len(v.panels))
	for _, p := range v.panels {
		keys = append(keys, p.Query.Key)
	}
	return keys
}

// Start subscribes every panel and publishes a board to onBoard on each change.
func (v *View) Start(onBoard func(ports.Board)) {
	v.mu.Lock()
	v.onBoard = onBoard
	v.mu.Unlock()

	subs := make([]unsubscriber, 0, len(v.panels))
	for _, p := range v.panels {
		v.session.warm(p.Query)
		if p.Interval > 0 {
			subs = append(subs, v.session.Poller.Schedule(p.Query, p.Interval, v.reconcile))
			continue
		}
		subs = append(subs, v.session.Store.Subscribe(p.Query, v.reconcile))
	}

	v.mu.Lock()
	v.subs = append(v.subs, subs...)
	v.mu.Unlock()
}

// Stop detaches every panel.
func (v *View) Stop() {
	v.mu.Lock()
	subs := v.subs
	v.subs = nil
	v.onBoard = nil
	v.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Refresh refetches every panel now.
func (v *View) Refresh(ctx context.Context) error {
	return v.session.Poller.TriggerManualRefresh(ctx, v.Keys()...)
}

// Board renders the view from the entries seen so far.
func (v *View) Board() ports.Board {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.boardLocked()
}

func (v *View) reconcile(e domain.CacheEntry) {
	v.pub.Lock()
	defer v.pub.Unlock()

	v.mu.Lock()
	v.entries[e.Key.String()] = e
	b := v.boardLocked()
	publish := v.onBoard
	v.mu.Unlock()

	if publish != nil {
		publish(b)
	}
}

func (v *View) boardLocked() ports.Board {
	now := v.clock.Now()
	b := ports.Board{Title: v.Title, At: now, Sections: make([]ports.Section, 0, len(v.panels))}
	for _, p := range v.panels {
		e, ok := v.entries[p.Query.Key.String()]
		if !ok {
			e = domain.CacheEntry{Key: p.Query.Key, Status: domain.StatusLoading}
		}
		b.Sections = append(b.Sections, section(now, p, e))
	}
	return b
}

func section(now time.Time, p Panel, e domain.CacheEntry) ports.Section {
	s := ports.Section{
		Title:     p.Title,
		Status:    e.Status,
		Err:       e.Err,
		FetchedAt: e.FetchedAt,
	}
	if !e.HasData() {
		return s
	}
	s.Lines = p.Render(now, e.Data)
	s.Stale = now.Sub(e.FetchedAt) >= p.Query.StaleTime
	return s
}
