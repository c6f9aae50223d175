package domain

import (
	"slices"
	"time"
)

// Event is an action fired against an order.
type Event string

const (
	// EventConfirm accepts a pending order.
	EventConfirm Event = "confirm"
	// EventStartCooking moves a confirmed order into the kitchen.
	EventStartCooking Event = "start_cooking"
	// EventMarkReady marks a cooked order as ready for hand-over.
	EventMarkReady Event = "mark_ready"
	// EventDeliver hands a ready order over to the guest.
	EventDeliver Event = "deliver"
	// EventCancel cancels an order that is not yet ready.
	EventCancel Event = "cancel"
)

// Events lists every event in lifecycle order.
var Events = []Event{EventConfirm, EventStartCooking, EventMarkReady, EventDeliver, EventCancel}

// ParseEvent parses an event name. Hyphens are accepted in place of underscores.
func ParseEvent(s string) (Event, error) {
	normalized := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			normalized = append(normalized, '_')
			continue
		}
		normalized = append(normalized, s[i])
	}
	ev := Event(normalized)
	if !slices.Contains(Events, ev) {
		return "", Tag(ErrUnknownEvent, "event", s)
	}
	return ev, nil
}

type transition struct {
	from OrderStatus
	on   Event
}

var transitions = map[transition]OrderStatus{
	{OrderPending, EventConfirm}:        OrderConfirmed,
	{OrderConfirmed, EventStartCooking}: OrderPreparing,
	{OrderPreparing, EventMarkReady}:    OrderReady,
	{OrderReady, EventDeliver}:          OrderCompleted,
	{OrderPending, EventCancel}:         OrderCancelled,
	{OrderConfirmed, EventCancel}:       OrderCancelled,
	{OrderPreparing, EventCancel}:       OrderCancelled,
}

// NextStatus returns the status an order in from reaches on ev.
func NextStatus(from OrderStatus, ev Event) (OrderStatus, bool) {
	to, ok := transitions[transition{from: from, on: ev}]
	return to, ok
}

// CanTransition reports whether ev is legal for the order, including the payment precondition of confirm.
func CanTransition(o Order, ev Event) bool {
	_, err := ApplyTransition(o, ev)
	return err == nil
}

// ApplyTransition returns a copy of o after ev. Every (status, event) pair outside the transition table
// returns ErrInvalidTransition and the unchanged order.
func ApplyTransition(o Order, ev Event) (Order, error) {
	to, ok := NextStatus(o.Status, ev)
	if !ok {
		err := Tag(ErrInvalidTransition, "from", string(o.Status))
		err = Tag(err, "event", string(ev))
		return o, Tag(err, "order_id", o.ID)
	}
	if ev == EventConfirm && o.PaymentStatus != PaymentPaid && !o.Type.PayLater() {
		err := Tag(ErrInvalidTransition, "reason", "payment required before confirmation")
		err = Tag(err, "order_type", string(o.Type))
		return o, Tag(err, "order_id", o.ID)
	}
	next := o.Clone()
	next.Status = to
	return next, nil
}

// AvailableEvents returns the events legal for o that role may fire.
func AvailableEvents(o Order, role Role) []Event {
	var out []Event
	for _, ev := range Events {
		if Authorize(role, ev) == nil && CanTransition(o, ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Role is the dashboard a user operates.
type Role string

const (
	// RoleCashier runs the point of sale and the shift.
	RoleCashier Role = "cashier"
	// RoleKitchen runs the kitchen display.
	RoleKitchen Role = "kitchen"
	// RoleWaiter serves tables.
	RoleWaiter Role = "waiter"
)

var permissions = map[Role][]Event{
	RoleKitchen: {EventConfirm, EventStartCooking, EventMarkReady, EventDeliver, EventCancel},
	RoleCashier: {EventConfirm, EventDeliver, EventCancel},
	RoleWaiter:  {EventDeliver},
}

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := permissions[r]; !ok {
		return "", Tag(ErrUnknownView, "role", s)
	}
	return r, nil
}

// Authorize reports whether role may fire ev. It does not check state legality.
func Authorize(role Role, ev Event) error {
	if slices.Contains(permissions[role], ev) {
		return nil
	}
	err := Tag(ErrForbiddenEvent, "role", string(role))
	return Tag(err, "event", string(ev))
}

// Priority ranks orders in the kitchen queue by waiting time.
type Priority uint8

const (
	// PriorityLow is an order waiting ten minutes or less.
	PriorityLow Priority = iota
	// PriorityMedium is an order waiting more than ten minutes.
	PriorityMedium
	// PriorityHigh is an order waiting more than fifteen minutes.
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// PriorityOf ranks an order created at createdAt as seen at now.
func PriorityOf(now, createdAt time.Time) Priority {
	waited := now.Sub(createdAt)
	switch {
	case waited > 15*time.Minute:
		return PriorityHigh
	case waited > 10*time.Minute:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
