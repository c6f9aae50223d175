// Package app implements the application layer for tillsync.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/tillsync/internal/adapters/config"
	"go.trai.ch/tillsync/internal/adapters/detector"
	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/adapters/linear"
	"go.trai.ch/tillsync/internal/adapters/notify"
	"go.trai.ch/tillsync/internal/adapters/snapshot"
	"go.trai.ch/tillsync/internal/adapters/telemetry"
	"go.trai.ch/tillsync/internal/adapters/tui"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// metricsShutdownTimeout bounds the graceful stop of the metrics endpoint.
const metricsShutdownTimeout = 2 * time.Second

// App represents the main application logic.
type App struct {
	loader  *config.Loader
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics
	queue   *notify.Queue

	teaOptions []tea.ProgramOption
	transport  ports.Transport
	snapshots  ports.SnapshotStore
	clock      clockwork.Clock
	stdout     io.Writer
	stderr     io.Writer
}

// New creates a new App instance.
func New(
	loader *config.Loader,
	log ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
	queue *notify.Queue,
) *App {
	return &App{
		loader:  loader,
		logger:  log,
		tracer:  tracer,
		metrics: metrics,
		queue:   queue,
		clock:   clockwork.NewRealClock(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithTransport replaces the HTTP client built from the settings.
func (a *App) WithTransport(t ports.Transport) *App {
	a.transport = t
	return a
}

// WithSnapshots replaces the SQLite snapshot store built from the settings.
func (a *App) WithSnapshots(s ports.SnapshotStore) *App {
	a.snapshots = s
	return a
}

// WithClock replaces the real clock.
func (a *App) WithClock(c clockwork.Clock) *App {
	a.clock = c
	return a
}

// WithOutput redirects board output and diagnostics.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// settings loads the configuration from path, or discovers it from the working directory.
func (a *App) settings(path string) (*config.Settings, error) {
	var (
		s   *config.Settings
		err error
	)
	if path != "" {
		s, err = a.loader.LoadFile(path)
	} else {
		cwd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, zerr.Wrap(wdErr, "failed to get working directory")
		}
		s, err = a.loader.Load(cwd)
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if j, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		j.SetJSON(s.Log.JSON)
	}
	return s, nil
}

// openSession builds the engine for s. The returned function releases everything it opened.
func (a *App) openSession(ctx context.Context, s *config.Settings) (*Session, func(), error) {
	transport := a.transport
	if transport == nil {
		client, err := httpapi.NewClient(httpapi.Options{
			BaseURL:    s.Backend.BaseURL,
			Token:      s.Backend.Token,
			BusinessID: s.Backend.BusinessID,
			OutletID:   s.Backend.OutletID,
			Timeout:    s.Backend.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		transport = client
	}
	backend := httpapi.NewBackend(transport, httpapi.WithTimeouts(func(resource string) time.Duration {
		return s.PolicyFor(resource).Timeout
	}))

	var cleanups []func()
	snaps := a.snapshots
	if snaps == nil && s.Snapshot.Enabled {
		store, err := snapshot.Open(ctx, s.Snapshot.Path)
		if err != nil {
			a.logger.Warn(fmt.Sprintf("running without snapshots: %v", err))
		} else {
			snaps = store
			cleanups = append(cleanups, func() {
				if err := store.Close(); err != nil {
					a.logger.Error(err)
				}
			})
		}
	}

	if stop := a.serveMetrics(s.Metrics.Addr); stop != nil {
		cleanups = append(cleanups, stop)
	}

	session := NewSession(ctx, s, backend, a.clock, a.logger, a.metrics, a.tracer, a.queue, snaps)
	return session, func() {
		session.Close()
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}, nil
}

// serveMetrics exposes the metrics registry on addr. It returns nil when nothing is served.
func (a *App) serveMetrics(addr string) func() {
	handler, ok := a.metrics.(http.Handler)
	if addr == "" || !ok {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(zerr.With(zerr.Wrap(err, "metrics endpoint stopped"), "addr", addr))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	ConfigPath string
	Role       domain.Role
	OutputMode string
}

// Watch shows the live board of a role until the user quits or ctx is cancelled.
//
//nolint:cyclop // orchestration function
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	s, err := a.settings(opts.ConfigPath)
	if err != nil {
		return err
	}
	userMode, err := detector.ParseMode(opts.OutputMode)
	if err != nil {
		return err
	}

	session, closeSession, err := a.openSession(ctx, s)
	if err != nil {
		return err
	}
	defer closeSession()

	view, err := session.View(opts.Role)
	if err != nil {
		return err
	}

	// Detect environment and resolve output mode
	mode := detector.ResolveMode(detector.DetectEnvironment(), userMode)

	var renderer ports.Renderer
	if mode == detector.ModeTUI {
		model := tui.NewModel(a.stderr, session.Controls(view))
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		renderer = tui.NewRenderer(&model, optsTea...)
	} else {
		renderer = linear.NewRenderer(a.stdout, a.stderr)
	}

	// Every engine span is reported to the renderer as sync activity.
	_, shutdown := telemetry.NewProvider(telemetry.NewBridge(renderer))
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()
	a.queue.OnChange(renderer.OnNotifications)

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Renderer Routine
	g.Go(func() error {
		defer cancel()
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		// Wait blocks until the renderer has terminated.
		return renderer.Wait()
	})

	// View Routine
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		view.Start(renderer.OnBoard)
		<-ctx.Done()
		view.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// RefreshOptions configuration for the Refresh method.
type RefreshOptions struct {
	ConfigPath string
	Resources  []string
}

// Refresh fetches resources once and prints them. Without resources every live resource is fetched.
func (a *App) Refresh(ctx context.Context, opts RefreshOptions) error {
	var board ports.Board
	err := a.oneShot(ctx, opts.ConfigPath, func(ctx context.Context, session *Session) error {
		var err error
		board, err = session.RefreshBoard(ctx, opts.Resources)
		if len(board.Sections) > 0 {
			_, _ = fmt.Fprint(a.stdout, linear.FormatBoard(board))
		}
		return err
	})
	if err != nil {
		return errors.Join(domain.ErrRefreshFailed, err)
	}
	return nil
}

// OrderOptions configuration for the Order method.
type OrderOptions struct {
	ConfigPath string
	Role       domain.Role
	OrderID    int64
	Event      domain.Event
}

// Order fires an event on an order.
func (a *App) Order(ctx context.Context, opts OrderOptions) error {
	return a.oneShot(ctx, opts.ConfigPath, func(ctx context.Context, session *Session) error {
		change, err := session.TransitionOrder(ctx, opts.Role, opts.OrderID, opts.Event)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "order #%s: %s → %s\n",
			orderNumber(change.Order), change.From, change.Order.Status)
		return nil
	})
}

// TableOptions configuration for the Table method.
type TableOptions struct {
	ConfigPath string
	TableID    int64
	Status     domain.TableStatus
}

// Table changes the status of a table.
func (a *App) Table(ctx context.Context, opts TableOptions) error {
	return a.oneShot(ctx, opts.ConfigPath, func(ctx context.Context, session *Session) error {
		t, err := session.SetTableStatus(ctx, opts.TableID, opts.Status)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "table %s: %s\n", t.Name, t.Status)
		return nil
	})
}

// ShiftOpen opens a shift with an opening balance.
func (a *App) ShiftOpen(ctx context.Context, configPath string, balance domain.Money) error {
	return a.oneShot(ctx, configPath, func(ctx context.Context, session *Session) error {
		sh, err := session.OpenShift(ctx, balance)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "shift #%d open · opening %s\n", sh.ID, sh.OpeningBalance)
		return nil
	})
}

// ShiftClose closes the active shift. A nil closing balance uses the expected total.
func (a *App) ShiftClose(ctx context.Context, configPath string, closing *domain.Money) error {
	return a.oneShot(ctx, configPath, func(ctx context.Context, session *Session) error {
		sh, err := session.CloseShift(ctx, closing)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "shift #%d closed · expected %s · %d transactions\n",
			sh.ID, sh.ExpectedTotal, sh.TotalTransactions)
		return nil
	})
}

// oneShot runs fn against a fresh session with sync activity printed as plain lines.
func (a *App) oneShot(ctx context.Context, configPath string, fn func(context.Context, *Session) error) error {
	s, err := a.settings(configPath)
	if err != nil {
		return err
	}
	session, closeSession, err := a.openSession(ctx, s)
	if err != nil {
		return err
	}
	defer closeSession()

	renderer := linear.NewRenderer(a.stdout, a.stderr)
	_, shutdown := telemetry.NewProvider(telemetry.NewBridge(renderer))
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()
	a.queue.OnChange(renderer.OnNotifications)

	return fn(ctx, session)
}
