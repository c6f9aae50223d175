package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/core/domain"
)

func newOrder(status domain.OrderStatus, payment domain.PaymentStatus, typ domain.OrderType) domain.Order {
	table := int64(4)
	return domain.Order{
		ID:            42,
		OrderNumber:   "ORD-0042",
		Status:        status,
		PaymentStatus: payment,
		Type:          typ,
		TableID:       &table,
		Items:         []domain.OrderItem{{ProductID: 1, ProductName: "Nasi Goreng", Quantity: 2}},
		Total:         domain.Amount(50000),
	}
}

func TestApplyTransition_Table(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.OrderStatus
		payment domain.PaymentStatus
		typ     domain.OrderType
		event   domain.Event
		want    domain.OrderStatus
	}{
		{"confirm paid takeaway", domain.OrderPending, domain.PaymentPaid, domain.OrderTakeaway, domain.EventConfirm, domain.OrderConfirmed},
		{"confirm unpaid dine-in", domain.OrderPending, domain.PaymentPending, domain.OrderDineIn, domain.EventConfirm, domain.OrderConfirmed},
		{"confirm unpaid self-service", domain.OrderPending, domain.PaymentPending, domain.OrderSelfService, domain.EventConfirm, domain.OrderConfirmed},
		{"start cooking", domain.OrderConfirmed, domain.PaymentPaid, domain.OrderTakeaway, domain.EventStartCooking, domain.OrderPreparing},
		{"mark ready", domain.OrderPreparing, domain.PaymentPaid, domain.OrderTakeaway, domain.EventMarkReady, domain.OrderReady},
		{"deliver", domain.OrderReady, domain.PaymentPaid, domain.OrderTakeaway, domain.EventDeliver, domain.OrderCompleted},
		{"cancel pending", domain.OrderPending, domain.PaymentPending, domain.OrderDineIn, domain.EventCancel, domain.OrderCancelled},
		{"cancel confirmed", domain.OrderConfirmed, domain.PaymentPending, domain.OrderDineIn, domain.EventCancel, domain.OrderCancelled},
		{"cancel preparing", domain.OrderPreparing, domain.PaymentPending, domain.OrderDineIn, domain.EventCancel, domain.OrderCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrder(tt.from, tt.payment, tt.typ)
			got, err := domain.ApplyTransition(o, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.from, o.Status, "input order must not be modified")
		})
	}
}

func TestApplyTransition_Totality(t *testing.T) {
	legal := 0
	for _, from := range domain.OrderStatuses {
		for _, ev := range domain.Events {
			o := newOrder(from, domain.PaymentPaid, domain.OrderTakeaway)
			got, err := domain.ApplyTransition(o, ev)

			if _, ok := domain.NextStatus(from, ev); ok {
				require.NoError(t, err, "%s -%s->", from, ev)
				legal++
				continue
			}

			require.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -%s->", from, ev)
			assert.Equal(t, o, got, "rejected transition must leave the order unchanged")
			assert.Equal(t, domain.KindInvalidTransition, domain.Classify(err))
		}
	}
	assert.Equal(t, 7, legal)
}

func TestApplyTransition_CancelFromReadyRejected(t *testing.T) {
	o := newOrder(domain.OrderReady, domain.PaymentPaid, domain.OrderDineIn)

	got, err := domain.ApplyTransition(o, domain.EventCancel)

	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.OrderReady, got.Status)
}

func TestApplyTransition_TerminalStates(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderCompleted, domain.OrderCancelled} {
		assert.True(t, status.IsTerminal())
		for _, ev := range domain.Events {
			_, err := domain.ApplyTransition(newOrder(status, domain.PaymentPaid, domain.OrderDineIn), ev)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		}
	}
}

func TestApplyTransition_ConfirmRequiresPayment(t *testing.T) {
	for _, typ := range []domain.OrderType{domain.OrderTakeaway, domain.OrderOnline} {
		t.Run(string(typ), func(t *testing.T) {
			o := newOrder(domain.OrderPending, domain.PaymentPending, typ)

			got, err := domain.ApplyTransition(o, domain.EventConfirm)

			require.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.ErrorContains(t, err, "invalid order status transition")
			assert.Equal(t, domain.OrderPending, got.Status)
			assert.False(t, domain.CanTransition(o, domain.EventConfirm))
		})
	}
}

func TestApplyTransition_CopiesItems(t *testing.T) {
	o := newOrder(domain.OrderPending, domain.PaymentPaid, domain.OrderTakeaway)

	got, err := domain.ApplyTransition(o, domain.EventConfirm)
	require.NoError(t, err)

	got.Items[0].Quantity = 99
	*got.TableID = 7
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, int64(4), *o.TableID)
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		role    domain.Role
		allowed []domain.Event
	}{
		{domain.RoleKitchen, domain.Events},
		{domain.RoleCashier, []domain.Event{domain.EventConfirm, domain.EventDeliver, domain.EventCancel}},
		{domain.RoleWaiter, []domain.Event{domain.EventDeliver}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, ev := range domain.Events {
				err := domain.Authorize(tt.role, ev)
				if contains(tt.allowed, ev) {
					assert.NoError(t, err, ev)
				} else {
					assert.ErrorIs(t, err, domain.ErrForbiddenEvent, ev)
				}
			}
		})
	}
}

func contains(events []domain.Event, ev domain.Event) bool {
	for _, e := range events {
		if e == ev {
			return true
		}
	}
	return false
}

func TestAvailableEvents(t *testing.T) {
	ready := newOrder(domain.OrderReady, domain.PaymentPaid, domain.OrderDineIn)
	assert.Equal(t, []domain.Event{domain.EventDeliver}, domain.AvailableEvents(ready, domain.RoleWaiter))

	preparing := newOrder(domain.OrderPreparing, domain.PaymentPaid, domain.OrderDineIn)
	assert.Empty(t, domain.AvailableEvents(preparing, domain.RoleWaiter))
	assert.Equal(t,
		[]domain.Event{domain.EventMarkReady, domain.EventCancel},
		domain.AvailableEvents(preparing, domain.RoleKitchen),
	)
}

func TestParseEvent(t *testing.T) {
	ev, err := domain.ParseEvent("start-cooking")
	require.NoError(t, err)
	assert.Equal(t, domain.EventStartCooking, ev)

	_, err = domain.ParseEvent("refund")
	require.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole("waiter")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWaiter, r)

	_, err = domain.ParseRole("owner")
	require.ErrorIs(t, err, domain.ErrUnknownView)
}

func TestPriorityOf(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.PriorityLow, domain.PriorityOf(now, now.Add(-10*time.Minute)))
	assert.Equal(t, domain.PriorityMedium, domain.PriorityOf(now, now.Add(-11*time.Minute)))
	assert.Equal(t, domain.PriorityMedium, domain.PriorityOf(now, now.Add(-15*time.Minute)))
	assert.Equal(t, domain.PriorityHigh, domain.PriorityOf(now, now.Add(-16*time.Minute)))
	assert.Equal(t, "high", domain.PriorityHigh.String())
}
