package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/adapters/config"
	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/adapters/notify"
	"go.trai.ch/tillsync/internal/adapters/telemetry"
	"go.trai.ch/tillsync/internal/app"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

const settingsYAML = `backend:
  base_url: http://till.test
  business_id: 1
  outlet_id: 3
  user_id: 7
snapshot:
  enabled: false
mutation:
  revalidate_window: 1s
`

// fakeBackend answers transport requests from routes keyed by "METHOD /path".
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]func(ports.Request) (*ports.Envelope, error)
	calls  []ports.Request
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: make(map[string]func(ports.Request) (*ports.Envelope, error))}
}

func (f *fakeBackend) handle(method, path string, fn func(ports.Request) (*ports.Envelope, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = fn
}

// reply answers method and path with data as a successful envelope.
func (f *fakeBackend) reply(method, path, data string) {
	f.handle(method, path, func(ports.Request) (*ports.Envelope, error) {
		return &ports.Envelope{Success: true, Data: json.RawMessage(data)}, nil
	})
}

// fail answers method and path with a rejected envelope.
func (f *fakeBackend) fail(method, path, message string) {
	f.handle(method, path, func(ports.Request) (*ports.Envelope, error) {
		env := &ports.Envelope{Success: false, Error: message, Message: message}
		return env, domain.Tag(domain.ErrRequestRejected, "message", message)
	})
}

func (f *fakeBackend) do(_ context.Context, req ports.Request) (*ports.Envelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn, ok := f.routes[req.Method+" "+req.Path]
	f.mu.Unlock()
	if !ok {
		return nil, domain.NewResponseError(http.StatusNotFound, "no route for "+req.Method+" "+req.Path)
	}
	return fn(req)
}

func (f *fakeBackend) requests(method, path string) []ports.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Request
	for _, r := range f.calls {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func writeSettings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(settingsYAML), 0o600); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return path
}

func loadSettings(t *testing.T, log ports.Logger) *config.Settings {
	t.Helper()
	s, err := config.NewLoader(log).LoadFile(writeSettings(t))
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	return s
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
	BlockUntil(n int)
}

type sessionHarness struct {
	session *app.Session
	backend *fakeBackend
	queue   *notify.Queue
	clock   fakeClock
}

func newSession(t *testing.T, snapshots ports.SnapshotStore) *sessionHarness {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	settings := loadSettings(t, log)

	fb := newFakeBackend()
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(fb.do).AnyTimes()

	clock := clockwork.NewFakeClockAt(now)
	queue := notify.NewQueue(clock, notify.DefaultLimit)
	backend := httpapi.NewBackend(transport)
	session := app.NewSession(t.Context(), settings, backend, clock, log,
		telemetry.NoOpMetrics{}, telemetry.NewNoOpTracer(), queue, snapshots)
	t.Cleanup(session.Close)

	return &sessionHarness{session: session, backend: fb, queue: queue, clock: clock}
}

func orderJSON(id int64, number string, status domain.OrderStatus, createdAt time.Time) string {
	data, _ := json.Marshal(map[string]any{
		"id":             id,
		"order_number":   number,
		"status":         status,
		"payment_status": "pending",
		"type":           "dine_in",
		"items":          []map[string]any{{"product_id": 1, "product_name": "Soup", "quantity": 2}},
		"total":          "12.50",
		"created_at":     createdAt,
	})
	return string(data)
}
