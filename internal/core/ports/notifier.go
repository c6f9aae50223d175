package ports

import "go.trai.ch/tillsync/internal/core/domain"

// Notifier surfaces dismissible notifications to the user.
//
//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Notify(n domain.Notification)
}
