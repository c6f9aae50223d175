package tui

import (
	"slices"
	"strings"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/ui/style"
)

const (
	timeLayout = "15:04:05"
	helpLine   = "r/F5 refresh · j/k select · enter retry · x dismiss · q quit"
)

// View renders the board, the notifications and the key help.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.header() + "\n\n")
	if len(m.Board.Sections) == 0 {
		b.WriteString(faintStyle.Render("Waiting for data...") + "\n")
	}
	for _, s := range m.Board.Sections {
		b.WriteString(renderSection(s))
		b.WriteString("\n")
	}

	if len(m.Notifications) > 0 {
		for i, n := range m.Notifications {
			b.WriteString(m.renderNotification(i, n) + "\n")
		}
		b.WriteString("\n")
	}
	if m.RefreshErr != nil {
		b.WriteString(errorStyle.Render(style.Cross+" refresh failed: "+m.RefreshErr.Error()) + "\n")
	}
	b.WriteString(faintStyle.Render(helpLine))
	return b.String()
}

func (m *Model) header() string {
	title := titleStyle.Render("TILLSYNC · " + m.Board.Title)
	var activity string
	switch {
	case m.Refreshing:
		activity = m.Spinner.View() + " refreshing"
	case len(m.Syncing) > 0:
		names := make([]string, 0, len(m.Syncing))
		for _, name := range m.Syncing {
			names = append(names, name)
		}
		slices.Sort(names)
		activity = m.Spinner.View() + " " + strings.Join(names, ", ")
	case !m.Board.At.IsZero():
		activity = faintStyle.Render("updated " + m.Board.At.Format(timeLayout))
	}
	if activity == "" {
		return title
	}
	return title + " " + activity
}

func renderSection(s ports.Section) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(s.Title) + " " + sectionState(s) + "\n")
	for _, line := range s.Lines {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

func sectionState(s ports.Section) string {
	switch {
	case s.Err != nil && len(s.Lines) > 0:
		return staleStyle.Render(style.Warning + " last known data · " + s.Err.Error())
	case s.Err != nil:
		return errorStyle.Render(style.Cross + " " + s.Err.Error())
	case s.Status == domain.StatusLoading:
		return faintStyle.Render(style.Circle + " loading")
	case s.Stale:
		return staleStyle.Render(style.Tilde + " " + s.FetchedAt.Format(timeLayout))
	default:
		return okStyle.Render(style.Check + " " + s.FetchedAt.Format(timeLayout))
	}
}

func (m *Model) renderNotification(i int, n domain.Notification) string {
	cursor := "  "
	if i == m.Selected {
		cursor = selectedStyle.Render("> ")
	}
	icon := staleStyle.Render(style.Warning)
	if n.Severity == domain.SeverityError {
		icon = errorStyle.Render(style.Cross)
	}
	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	if n.Retryable {
		text += faintStyle.Render(" (enter to retry)")
	}
	return cursor + icon + " " + text
}
