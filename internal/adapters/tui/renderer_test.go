package tui_test

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/adapters/tui"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

var _ ports.Renderer = (*tui.Renderer)(nil)

func newRenderer(t *testing.T) (*tui.Renderer, *tui.Model) {
	t.Helper()
	model := tui.NewModel(io.Discard, nil)
	r := tui.NewRenderer(&model,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
	return r, &model
}

func TestRenderer_Lifecycle(t *testing.T) {
	r, _ := newRenderer(t)

	require.NoError(t, r.Start(t.Context()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())
}

func TestRenderer_ForwardsEvents(t *testing.T) {
	r, model := newRenderer(t)
	require.NoError(t, r.Start(t.Context()))

	now := time.Now()
	r.OnBoard(ports.Board{Title: "waiter"})
	r.OnNotifications([]domain.Notification{{ID: "n1"}})
	r.OnSyncStart("s1", "", "tables", now)
	r.OnSyncStart("s2", "", "kitchen.orders", now)
	r.OnSyncComplete("s1", now, nil)

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	assert.Equal(t, "waiter", model.Board.Title)
	assert.Len(t, model.Notifications, 1)
	assert.Equal(t, map[string]string{"s2": "kitchen.orders"}, model.Syncing)
}
