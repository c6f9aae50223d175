package mutation

import (
	"sync"
	"time"
	"unique"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/core/domain"
)

// Debouncer coalesces revalidation requests that arrive in quick succession into one batch.
type Debouncer struct {
	clock    clockwork.Clock
	mu       sync.Mutex
	pending  map[unique.Handle[string]]domain.QueryKey
	timer    clockwork.Timer
	window   time.Duration
	callback func(keys []domain.QueryKey)
}

// NewDebouncer creates a debouncer that calls callback once window has passed without new keys.
func NewDebouncer(clock clockwork.Clock, window time.Duration, callback func(keys []domain.QueryKey)) *Debouncer {
	return &Debouncer{
		clock:    clock,
		pending:  make(map[unique.Handle[string]]domain.QueryKey),
		window:   window,
		callback: callback,
	}
}

// Add queues keys for revalidation and restarts the window.
func (d *Debouncer) Add(keys ...domain.QueryKey) {
	if len(keys) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, k := range keys {
		d.pending[k.Handle()] = k
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.window, d.fire)
}

// Pending returns the number of queued keys.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) fire() {
	d.mu.Lock()

	// Flush may have drained the set already.
	if len(d.pending) == 0 {
		d.timer = nil
		d.mu.Unlock()
		return
	}

	keys := d.drainLocked()
	d.timer = nil
	d.mu.Unlock()

	if d.callback != nil {
		go d.callback(keys)
	}
}

// Flush calls the callback with everything queued and waits for it to return.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Already fired; fire owns the batch.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	keys := d.drainLocked()
	d.mu.Unlock()

	if len(keys) > 0 && d.callback != nil {
		d.callback(keys)
	}
}

func (d *Debouncer) drainLocked() []domain.QueryKey {
	keys := make([]domain.QueryKey, 0, len(d.pending))
	for _, k := range d.pending {
		keys = append(keys, k)
	}
	d.pending = make(map[unique.Handle[string]]domain.QueryKey)
	return keys
}
