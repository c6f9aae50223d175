package domain

import "time"

// Severity is the visual weight of a notification.
type Severity uint8

const (
	// SeverityInfo is a neutral message.
	SeverityInfo Severity = iota
	// SeverityWarning is a recoverable problem; cached data is still shown.
	SeverityWarning
	// SeverityError is a failed user action.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a dismissible message shown on the live views.
type Notification struct {
	ID        string
	Severity  Severity
	Title     string
	Message   string
	Key       QueryKey
	Kind      ErrorKind
	Retryable bool
	CreatedAt time.Time
}

// KitchenAlert summarizes pending orders that need kitchen attention.
type KitchenAlert struct {
	Count        int            `json:"count"`
	HasNewOrders bool           `json:"has_new_orders"`
	RecentOrders []OrderSummary `json:"recent_orders"`
}

// OrderSummary is the compact order form used by kitchen alerts.
type OrderSummary struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"order_number"`
	Total       Money     `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}
