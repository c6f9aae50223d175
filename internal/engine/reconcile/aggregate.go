package reconcile

import (
	"cmp"
	"slices"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
)

// OrderStats summarizes an order collection for the dashboard counters.
type OrderStats struct {
	Count      int
	ByStatus   map[domain.OrderStatus]int
	Unpaid     int
	TotalItems int
	Revenue    domain.Money
}

// SummarizeOrders counts orders by status, unpaid orders and the items across all orders.
// Revenue sums completed orders only.
func SummarizeOrders(orders []domain.Order) OrderStats {
	stats := OrderStats{
		Count:    len(orders),
		ByStatus: make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
	}
	for _, s := range domain.OrderStatuses {
		stats.ByStatus[s] = 0
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
		if o.PaymentStatus != domain.PaymentPaid && o.Status != domain.OrderCancelled {
			stats.Unpaid++
		}
		stats.TotalItems += o.ItemCount()
		if o.Status == domain.OrderCompleted {
			stats.Revenue += o.Total
		}
	}
	return stats
}

// TableStats counts tables by occupancy.
type TableStats struct {
	Total     int
	Available int
	Occupied  int
	Reserved  int
}

// SummarizeTables counts tables by status.
func SummarizeTables(tables []domain.Table) TableStats {
	stats := TableStats{Total: len(tables)}
	for _, t := range tables {
		switch t.Status {
		case domain.TableAvailable:
			stats.Available++
		case domain.TableOccupied:
			stats.Occupied++
		case domain.TableReserved:
			stats.Reserved++
		}
	}
	return stats
}

// FilterOrders returns the orders whose status is one of statuses. The result is a new slice.
func FilterOrders(orders []domain.Order, statuses ...domain.OrderStatus) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if slices.Contains(statuses, o.Status) {
			out = append(out, o)
		}
	}
	return out
}

// ByPriority returns a copy of orders sorted by kitchen priority, oldest first within a priority.
func ByPriority(now time.Time, orders []domain.Order) []domain.Order {
	out := slices.Clone(orders)
	if out == nil {
		out = []domain.Order{}
	}
	slices.SortStableFunc(out, func(a, b domain.Order) int {
		pa, pb := domain.PriorityOf(now, a.CreatedAt), domain.PriorityOf(now, b.CreatedAt)
		if pa != pb {
			return cmp.Compare(pb, pa)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// ReplaceOrder returns a copy of orders with the order of the same id replaced by o.
// It reports false when no order has that id.
func ReplaceOrder(orders []domain.Order, o domain.Order) ([]domain.Order, bool) {
	out := make([]domain.Order, len(orders))
	found := false
	for i, cur := range orders {
		if cur.ID == o.ID {
			out[i] = o.Clone()
			found = true
			continue
		}
		out[i] = cur
	}
	return out, found
}

// ReplaceTable returns a copy of tables with the table of the same id replaced by t.
func ReplaceTable(tables []domain.Table, t domain.Table) ([]domain.Table, bool) {
	out := slices.Clone(tables)
	if out == nil {
		out = []domain.Table{}
	}
	for i := range out {
		if out[i].ID == t.ID {
			out[i] = t
			return out, true
		}
	}
	return out, false
}

// FindOrder returns the order with id.
func FindOrder(orders []domain.Order, id int64) (domain.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// FindTable returns the table with id.
func FindTable(tables []domain.Table, id int64) (domain.Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Table{}, false
}
