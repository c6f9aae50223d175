// Package tui provides the interactive live board.
package tui

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/poller"
)

// Model is the bubbletea model of the live board.
type Model struct {
	Controls      ports.Controls
	Board         ports.Board
	Notifications []domain.Notification
	// Syncing maps in-flight sync ids to their names.
	Syncing    map[string]string
	Spinner    spinner.Model
	Selected   int
	Refreshing bool
	RefreshErr error
	Width      int
	Height     int
}

// NewModel creates a board model that forwards user actions to controls.
func NewModel(w io.Writer, controls ports.Controls) Model {
	if w == nil {
		w = os.Stderr
	}
	out := termenv.NewOutput(w, termenv.WithProfile(ColorProfile()), termenv.WithTTY(true))
	lipgloss.SetColorProfile(out.Profile)

	return Model{
		Controls: controls,
		Syncing:  make(map[string]string),
		Spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(selectedStyle)),
	}
}

// ColorProfile returns Ascii when NO_COLOR is set and TrueColor otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.TrueColor
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update handles key presses, focus changes and board updates.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.FocusMsg:
		return m, m.foreground(true)

	case tea.BlurMsg:
		return m, m.foreground(false)

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case MsgBoard:
		m.Board = msg.Board

	case MsgNotifications:
		m.Notifications = msg.Items
		m.clampSelection()

	case MsgSyncStart:
		if m.Syncing == nil {
			m.Syncing = make(map[string]string)
		}
		m.Syncing[msg.ID] = msg.Name

	case MsgSyncComplete:
		delete(m.Syncing, msg.ID)

	case MsgRefreshDone:
		m.Refreshing = false
		m.RefreshErr = msg.Err
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch {
	case key == "q" || key == "ctrl+c":
		return tea.Quit
	case poller.IsRefreshKey(key):
		return m.refresh()
	case key == "j" || key == "down" || key == "tab":
		if m.Selected < len(m.Notifications)-1 {
			m.Selected++
		}
	case key == "k" || key == "up":
		if m.Selected > 0 {
			m.Selected--
		}
	case key == "x":
		return m.dismiss()
	case key == "enter":
		return m.retry()
	}
	return nil
}

func (m *Model) refresh() tea.Cmd {
	if m.Refreshing || m.Controls == nil {
		return nil
	}
	m.Refreshing = true
	m.RefreshErr = nil
	controls := m.Controls
	return func() tea.Msg {
		return MsgRefreshDone{Err: controls.Refresh(context.Background())}
	}
}

// Control calls run as commands: they publish back into the program, which must not happen
// from inside Update.
func (m *Model) foreground(visible bool) tea.Cmd {
	if m.Controls == nil {
		return nil
	}
	controls := m.Controls
	return func() tea.Msg {
		controls.SetForeground(visible)
		return nil
	}
}

func (m *Model) dismiss() tea.Cmd {
	n, ok := m.selectedNotification()
	if !ok || m.Controls == nil {
		return nil
	}
	controls := m.Controls
	return func() tea.Msg {
		controls.Dismiss(n.ID)
		return nil
	}
}

func (m *Model) retry() tea.Cmd {
	n, ok := m.selectedNotification()
	if !ok || !n.Retryable || m.Controls == nil {
		return nil
	}
	controls := m.Controls
	return func() tea.Msg {
		return MsgRefreshDone{Err: controls.Retry(context.Background(), n.ID)}
	}
}

func (m *Model) selectedNotification() (domain.Notification, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Notifications) {
		return domain.Notification{}, false
	}
	return m.Notifications[m.Selected], true
}

func (m *Model) clampSelection() {
	if m.Selected >= len(m.Notifications) {
		m.Selected = len(m.Notifications) - 1
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}
