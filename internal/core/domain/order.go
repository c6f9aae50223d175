package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// OrderStatus is the kitchen/fulfilment status of an order.
type OrderStatus string

const (
	// OrderPending is a new order awaiting confirmation.
	OrderPending OrderStatus = "pending"
	// OrderConfirmed is accepted and queued for the kitchen.
	OrderConfirmed OrderStatus = "confirmed"
	// OrderPreparing is being cooked.
	OrderPreparing OrderStatus = "preparing"
	// OrderReady is cooked and waiting for hand-over.
	OrderReady OrderStatus = "ready"
	// OrderCompleted has been handed over.
	OrderCompleted OrderStatus = "completed"
	// OrderCancelled was cancelled before it was ready.
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled,
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// IsActive reports whether the order still occupies the kitchen or a table.
func (s OrderStatus) IsActive() bool {
	return !s.IsTerminal()
}

// PaymentStatus is independent of OrderStatus: an order may be confirmed before it is paid.
type PaymentStatus string

const (
	// PaymentPending means the order has not been paid yet.
	PaymentPending PaymentStatus = "pending"
	// PaymentPaid means the order has been paid.
	PaymentPaid PaymentStatus = "paid"
)

// OrderType is the service channel of an order.
type OrderType string

const (
	// OrderDineIn is served at a table; payment may happen after eating.
	OrderDineIn OrderType = "dine_in"
	// OrderTakeaway is collected at the counter.
	OrderTakeaway OrderType = "takeaway"
	// OrderSelfService is placed by the guest at a table; payment may happen later.
	OrderSelfService OrderType = "self_service"
	// OrderOnline comes from a delivery platform.
	OrderOnline OrderType = "online"
)

// PayLater reports whether orders of this type may be confirmed while payment is pending.
func (t OrderType) PayLater() bool {
	return t == OrderDineIn || t == OrderSelfService
}

// OrderItem is a line of an order.
type OrderItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

// Order is a customer order as seen by the dashboards.
type Order struct {
	ID            int64         `json:"id"`
	OrderNumber   string        `json:"order_number"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Type          OrderType     `json:"type"`
	TableID       *int64        `json:"table_id,omitempty"`
	Items         []OrderItem   `json:"items"`
	Total         Money         `json:"total"`
	CreatedAt     time.Time     `json:"created_at"`
	ShiftID       *int64        `json:"shift_id,omitempty"`
}

// orderWire mirrors Order with the alternative field names the backend has used over time.
type orderWire struct {
	ID            int64         `json:"id"`
	OrderNumber   string        `json:"order_number"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Type          OrderType     `json:"type"`
	OrderType     OrderType     `json:"order_type"`
	TableID       *int64        `json:"table_id"`
	Items         []OrderItem   `json:"items"`
	OrderItems    []struct {
		ProductID int64  `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Notes     string `json:"notes"`
		Product   *struct {
			Name string `json:"name"`
		} `json:"product"`
	} `json:"order_items"`
	Total       Money     `json:"total"`
	TotalAmount *Money    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	OrderedAt   time.Time `json:"ordered_at"`
	ShiftID     *int64    `json:"shift_id"`
}

// UnmarshalJSON accepts both the "items" and the eager-loaded "order_items" layouts, and the
// "order_type" and "total_amount" aliases.
func (o *Order) UnmarshalJSON(data []byte) error {
	var w orderWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	items := w.Items
	if len(items) == 0 && len(w.OrderItems) > 0 {
		items = make([]OrderItem, 0, len(w.OrderItems))
		for _, it := range w.OrderItems {
			item := OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Notes: it.Notes}
			if it.Product != nil {
				item.ProductName = it.Product.Name
			}
			items = append(items, item)
		}
	}
	if items == nil {
		items = []OrderItem{}
	}

	typ := w.Type
	if typ == "" {
		typ = w.OrderType
	}
	total := w.Total
	if total == 0 && w.TotalAmount != nil {
		total = *w.TotalAmount
	}

	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = w.OrderedAt
	}

	*o = Order{
		ID:            w.ID,
		OrderNumber:   w.OrderNumber,
		Status:        w.Status,
		PaymentStatus: w.PaymentStatus,
		Type:          typ,
		TableID:       w.TableID,
		Items:         items,
		Total:         total,
		CreatedAt:     createdAt,
		ShiftID:       w.ShiftID,
	}
	return nil
}

// ItemCount returns the total quantity across the order's items.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	c := o
	c.Items = slices.Clone(o.Items)
	if o.TableID != nil {
		id := *o.TableID
		c.TableID = &id
	}
	if o.ShiftID != nil {
		id := *o.ShiftID
		c.ShiftID = &id
	}
	return c
}

// Identity returns the order id.
func (o Order) Identity() int64 {
	return o.ID
}
