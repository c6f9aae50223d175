package ports

import (
	"context"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
)

// Section is one block of a live board, e.g. the kitchen queue or the table map.
type Section struct {
	Title     string
	Status    domain.EntryStatus
	Lines     []string
	Err       error
	FetchedAt time.Time
	// Stale is set while the section shows data older than its staleness window.
	Stale bool
}

// Board is the rendered form of a role view.
type Board struct {
	Title    string
	Sections []Section
	At       time.Time
}

// Controls are the user actions a renderer can trigger.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Controls interface {
	// Refresh refetches every live query of the board.
	Refresh(ctx context.Context) error
	// SetForeground pauses polling while the board is not visible.
	SetForeground(foreground bool)
	// Dismiss removes a notification.
	Dismiss(id string)
	// Retry runs the retry action of a notification.
	Retry(ctx context.Context, id string) error
}

// Renderer presents live boards and sync activity.
type Renderer interface {
	Activity
	// Start begins rendering. It must not block.
	Start(ctx context.Context) error
	// Stop asks the renderer to exit.
	Stop() error
	// Wait blocks until the renderer has exited.
	Wait() error
	// OnBoard replaces the displayed board.
	OnBoard(b Board)
	// OnNotifications replaces the displayed notifications.
	OnNotifications(items []domain.Notification)
}
