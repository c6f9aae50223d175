package tui

import (
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

// MsgBoard replaces the displayed board.
type MsgBoard struct {
	Board ports.Board
}

// MsgNotifications replaces the displayed notifications.
type MsgNotifications struct {
	Items []domain.Notification
}

// MsgSyncStart reports a fetch or mutation that started.
type MsgSyncStart struct {
	ID    string
	Name  string
	Start time.Time
}

// MsgSyncComplete reports a fetch or mutation that finished.
type MsgSyncComplete struct {
	ID  string
	End time.Time
	Err error
}

// MsgRefreshDone carries the result of a manual refresh.
type MsgRefreshDone struct {
	Err error
}
