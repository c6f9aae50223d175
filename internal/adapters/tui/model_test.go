package tui_test

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/adapters/tui"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newModel(t *testing.T) (*tui.Model, *mocks.MockControls) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	controls := mocks.NewMockControls(gomock.NewController(t))
	m := tui.NewModel(io.Discard, controls)
	return &m, controls
}

func update(m *tui.Model, msg tea.Msg) (*tui.Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(*tui.Model), cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_QuitKeys(t *testing.T) {
	m, _ := newModel(t)

	_, cmd := update(m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_RefreshKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{key("r"), {Type: tea.KeyF5}} {
		t.Run(msg.String(), func(t *testing.T) {
			m, controls := newModel(t)
			controls.EXPECT().Refresh(gomock.Any()).Return(nil)

			m, cmd := update(m, msg)
			require.NotNil(t, cmd)
			assert.True(t, m.Refreshing)

			_, again := update(m, msg)
			assert.Nil(t, again, "a refresh in progress is not started twice")

			m, _ = update(m, cmd())
			assert.False(t, m.Refreshing)
			assert.NoError(t, m.RefreshErr)
		})
	}
}

func TestModel_RefreshError(t *testing.T) {
	m, controls := newModel(t)
	controls.EXPECT().Refresh(gomock.Any()).Return(domain.ErrServer)

	m, cmd := update(m, key("r"))
	m, _ = update(m, cmd())

	require.ErrorIs(t, m.RefreshErr, domain.ErrServer)
	assert.Contains(t, m.View(), "refresh failed: server error")
}

func TestModel_FocusTogglesForeground(t *testing.T) {
	m, controls := newModel(t)
	gomock.InOrder(
		controls.EXPECT().SetForeground(false),
		controls.EXPECT().SetForeground(true),
	)

	_, cmd := update(m, tea.BlurMsg{})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	_, cmd = update(m, tea.FocusMsg{})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
}

func notifications() []domain.Notification {
	return []domain.Notification{
		{ID: "n1", Severity: domain.SeverityWarning, Title: "Tables unavailable", Retryable: true},
		{ID: "n2", Severity: domain.SeverityError, Title: "Order rejected"},
	}
}

func TestModel_DismissSelected(t *testing.T) {
	m, controls := newModel(t)
	controls.EXPECT().Dismiss("n2")

	m, _ = update(m, tui.MsgNotifications{Items: notifications()})
	m, _ = update(m, key("j"))
	assert.Equal(t, 1, m.Selected)
	m, _ = update(m, key("j"))
	assert.Equal(t, 1, m.Selected, "selection stops at the last notification")

	_, cmd := update(m, key("x"))
	require.NotNil(t, cmd)
	cmd()
}

func TestModel_RetrySelected(t *testing.T) {
	m, controls := newModel(t)
	controls.EXPECT().Retry(gomock.Any(), "n1").Return(nil)

	m, _ = update(m, tui.MsgNotifications{Items: notifications()})
	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tui.MsgRefreshDone{}, cmd())

	m, _ = update(m, key("j"))
	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "non-retryable notifications have no retry action")
}

func TestModel_SelectionClampedWhenNotificationsShrink(t *testing.T) {
	m, _ := newModel(t)

	m, _ = update(m, tui.MsgNotifications{Items: notifications()})
	m, _ = update(m, key("j"))
	m, _ = update(m, tui.MsgNotifications{Items: notifications()[:1]})
	assert.Equal(t, 0, m.Selected)

	m, _ = update(m, tui.MsgNotifications{})
	assert.Equal(t, 0, m.Selected)
	_, cmd := update(m, key("x"))
	assert.Nil(t, cmd)
}

func TestModel_SyncTracking(t *testing.T) {
	m, _ := newModel(t)

	m, _ = update(m, tui.MsgSyncStart{ID: "s1", Name: "tables", Start: time.Now()})
	assert.Contains(t, m.View(), "tables")
	m, _ = update(m, tui.MsgSyncComplete{ID: "s1", End: time.Now()})
	assert.Empty(t, m.Syncing)
}

func TestModel_View(t *testing.T) {
	m, _ := newModel(t)
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

	assert.Contains(t, m.View(), "Waiting for data...")

	m, _ = update(m, tui.MsgBoard{Board: ports.Board{
		Title: "kitchen",
		At:    at,
		Sections: []ports.Section{
			{Title: "Queue", Status: domain.StatusSuccess, FetchedAt: at, Lines: []string{"#A12 preparing"}},
			{Title: "Tables", Err: errors.New("request timed out"), Lines: []string{"T1 occupied"}},
		},
	}})
	m, _ = update(m, tui.MsgNotifications{Items: notifications()})

	view := m.View()
	assert.Contains(t, view, "TILLSYNC · kitchen")
	assert.Contains(t, view, "updated 09:30:00")
	assert.Contains(t, view, "Queue ✓ 09:30:00")
	assert.Contains(t, view, "  #A12 preparing")
	assert.Contains(t, view, "⚠ last known data · request timed out")
	assert.Contains(t, view, "> ⚠ Tables unavailable (enter to retry)")
	assert.Contains(t, view, "  ✗ Order rejected")
	assert.Contains(t, view, "r/F5 refresh")
}

func TestModel_WithoutControls(t *testing.T) {
	m := tui.NewModel(io.Discard, nil)

	_, cmd := m.Update(key("r"))
	assert.Nil(t, cmd)
	_, cmd = m.Update(tea.BlurMsg{})
	assert.Nil(t, cmd)
	assert.NotNil(t, m.Init())
}
