// Package linear renders live boards as plain lines for pipes, logs and CI.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/ui/style"
)

const timeLayout = "15:04:05"

// Renderer implements ports.Renderer. Boards go to stdout, sync activity and notifications to stderr.
// A board identical to the previous one is not printed again.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu        sync.Mutex
	syncs     map[string]syncState
	lastBoard string
	announced map[string]struct{}

	done chan struct{}
	stop sync.Once
}

type syncState struct {
	name  string
	start time.Time
}

// NewRenderer creates a Renderer. Nil writers default to os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Renderer{
		stdout:    stdout,
		stderr:    stderr,
		output:    termenv.NewOutput(stderr, termenv.WithProfile(colorProfile())),
		syncs:     make(map[string]syncState),
		announced: make(map[string]struct{}),
		done:      make(chan struct{}),
	}
}

func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// Start is a no-op.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop releases Wait.
func (r *Renderer) Stop() error {
	r.stop.Do(func() { close(r.done) })
	return nil
}

// Wait blocks until Stop has been called.
func (r *Renderer) Wait() error {
	<-r.done
	return nil
}

// OnSyncStart prints a faint start line.
func (r *Renderer) OnSyncStart(id, _, name string, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.syncs[id] = syncState{name: name, start: start}
	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s syncing...\n", prefix)
}

// OnSyncComplete prints the outcome and duration of a sync.
func (r *Renderer) OnSyncComplete(id string, end time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.syncs[id]
	if !ok {
		return
	}
	delete(r.syncs, id)

	prefix := fmt.Sprintf("[%s]", s.name)
	elapsed := end.Sub(s.start).Round(time.Millisecond)
	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s failed after %v: %v\n", prefix, symbol, elapsed, err)
		return
	}
	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s synced in %v\n", prefix, symbol, elapsed)
}

// OnBoard prints b unless it renders the same as the last board.
func (r *Renderer) OnBoard(b ports.Board) {
	text := FormatBoard(b)

	r.mu.Lock()
	defer r.mu.Unlock()
	if text == r.lastBoard {
		return
	}
	r.lastBoard = text
	_, _ = fmt.Fprintf(r.stdout, "── %s (%s)\n%s", b.Title, b.At.Format(timeLayout), text)
}

// OnNotifications prints notifications not printed before.
func (r *Renderer) OnNotifications(items []domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range items {
		if _, seen := r.announced[n.ID]; seen {
			continue
		}
		r.announced[n.ID] = struct{}{}

		symbol := r.output.String(style.Warning).Foreground(termenv.ANSIYellow).String()
		if n.Severity == domain.SeverityError {
			symbol = r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		}
		line := n.Title
		if n.Message != "" {
			line += ": " + n.Message
		}
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", symbol, line)
	}
}

// FormatBoard renders the sections of b without the title line.
func FormatBoard(b ports.Board) string {
	var sb strings.Builder
	for _, s := range b.Sections {
		sb.WriteString("[" + s.Title + "] " + sectionState(s) + "\n")
		for _, line := range s.Lines {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

func sectionState(s ports.Section) string {
	switch {
	case s.Err != nil && len(s.Lines) > 0:
		return style.Warning + " showing last known data: " + s.Err.Error()
	case s.Err != nil:
		return style.Cross + " " + s.Err.Error()
	case s.Status == domain.StatusLoading:
		return style.Circle + " loading"
	case s.Stale:
		return style.Tilde + " stale since " + s.FetchedAt.Format(timeLayout)
	default:
		return style.Check + " " + s.FetchedAt.Format(timeLayout)
	}
}
