package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	warnGlyph  = "⚠"
	errorGlyph = "✗"
)

// PrettyHandler is a slog.Handler producing one colored, human-readable line per record.
type PrettyHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string

	info  lipgloss.Style
	warn  lipgloss.Style
	error lipgloss.Style
}

// NewPrettyHandler creates a PrettyHandler writing to w. Colors follow the terminal behind w and
// are disabled by NO_COLOR.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	r := lipgloss.NewRenderer(w)
	return &PrettyHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: levelVar,
		info:  r.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#EAB308")),
		error: r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	style := h.info
	switch {
	case r.Level >= slog.LevelError:
		msg = errorGlyph + " " + msg
		style = h.error
	case r.Level >= slog.LevelWarn:
		msg = warnGlyph + " " + msg
		style = h.warn
	}

	parts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		parts = appendFlattened(parts, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, h.groups, attr)
		return true
	})
	if len(parts) > 0 {
		msg += " " + strings.Join(parts, " ")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	_, err := io.WriteString(h.w, strings.Join(lines, "\n")+"\n")
	return err
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		c.attrs = appendQualified(c.attrs, h.groups, a)
	}
	return c
}

// WithGroup returns a handler that qualifies later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(append([]string{}, h.groups...), name)
	return c
}

func (h *PrettyHandler) clone() *PrettyHandler {
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	return &c
}

// appendQualified stores attr with its key already qualified by the groups active at WithAttrs time.
func appendQualified(attrs []slog.Attr, groups []string, attr slog.Attr) []slog.Attr {
	if len(groups) > 0 {
		attr.Key = strings.Join(groups, ".") + "." + attr.Key
	}
	return append(attrs, attr)
}

func appendAttr(parts []string, groups []string, attr slog.Attr) []string {
	return appendFlattened(parts, strings.Join(groups, "."), attr)
}

func appendFlattened(parts []string, prefix string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, a := range attr.Value.Group() {
			parts = appendFlattened(parts, key, a)
		}
		return parts
	}
	if attr.Equal(slog.Attr{}) {
		return parts
	}
	return append(parts, key+"="+attr.Value.String())
}

func formatValue(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
