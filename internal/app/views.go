package app

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/tillsync/internal/engine/reconcile"
)

// View returns the dashboard of role.
func (s *Session) View(role domain.Role) (*View, error) {
	switch role {
	case domain.RoleKitchen:
		return s.kitchenView(), nil
	case domain.RoleWaiter:
		return s.waiterView(), nil
	case domain.RoleCashier:
		return s.cashierView(), nil
	default:
		return nil, domain.Tag(domain.ErrUnknownView, "role", string(role))
	}
}

func (s *Session) panel(title string, query cache.Query, render func(time.Time, any) []string) Panel {
	return Panel{
		Title:    title,
		Query:    query,
		Interval: s.Catalog.Policy(query.Key.Resource()).PollInterval,
		Render:   render,
	}
}

func (s *Session) kitchenView() *View {
	return newView(s, domain.RoleKitchen, "Kitchen",
		s.panel("Queue", s.Catalog.KitchenOrders(), func(now time.Time, data any) []string {
			return orderLines(now, domain.RoleKitchen, data,
				domain.OrderPending, domain.OrderConfirmed, domain.OrderPreparing, domain.OrderReady)
		}),
		s.panel("New orders", s.Catalog.KitchenAlerts(), alertLines),
	)
}

func (s *Session) waiterView() *View {
	return newView(s, domain.RoleWaiter, "Floor",
		s.panel("Tables", s.Catalog.Tables(httpapi.TableFilters{}), tableLines),
		s.panel("Ready to serve", s.Catalog.Orders(httpapi.OrderFilters{}), func(now time.Time, data any) []string {
			return orderLines(now, domain.RoleWaiter, data, domain.OrderReady)
		}),
	)
}

func (s *Session) cashierView() *View {
	return newView(s, domain.RoleCashier, "Till",
		s.panel("Shift", s.Catalog.ActiveShift(), shiftLines),
		s.panel("Orders", s.Catalog.Orders(httpapi.OrderFilters{}), func(now time.Time, data any) []string {
			lines := summaryLines(data)
			return append(lines, orderLines(now, domain.RoleCashier, data,
				domain.OrderPending, domain.OrderReady)...)
		}),
		s.panel("Sales today", s.Catalog.SalesStats(httpapi.Today), func(_ time.Time, data any) []string {
			return figureLines(data)
		}),
	)
}

func orderLines(now time.Time, role domain.Role, data any, statuses ...domain.OrderStatus) []string {
	c, ok := data.(reconcile.Collection[domain.Order])
	if !ok {
		return nil
	}
	orders := reconcile.ByPriority(now, reconcile.FilterOrders(c.Items, statuses...))
	if len(orders) == 0 {
		return []string{"no open orders"}
	}
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, orderLine(now, role, o))
	}
	return lines
}

func orderLine(now time.Time, role domain.Role, o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%-6s %-9s %2d items  %s", orderNumber(o), o.Status, o.ItemCount(), waited(now, o.CreatedAt))
	if p := domain.PriorityOf(now, o.CreatedAt); p != domain.PriorityLow {
		fmt.Fprintf(&b, " [%s]", p)
	}
	if o.TableID != nil {
		fmt.Fprintf(&b, "  table %d", *o.TableID)
	}
	if o.PaymentStatus != domain.PaymentPaid {
		b.WriteString("  unpaid")
	}
	if evs := domain.AvailableEvents(o, role); len(evs) > 0 {
		names := make([]string, len(evs))
		for i, ev := range evs {
			names[i] = string(ev)
		}
		b.WriteString("  → " + strings.Join(names, "|"))
	}
	return b.String()
}

func orderNumber(o domain.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return strconv.FormatInt(o.ID, 10)
}

func waited(now, since time.Time) string {
	if since.IsZero() {
		return "-"
	}
	d := now.Sub(since).Round(time.Minute)
	if d < time.Minute {
		return "just now"
	}
	return fmt.Sprintf("%dm ago", int(d.Minutes()))
}

func alertLines(_ time.Time, data any) []string {
	a, ok := data.(domain.KitchenAlert)
	if !ok {
		return nil
	}
	head := fmt.Sprintf("%d pending", a.Count)
	if a.HasNewOrders {
		head += " · new orders"
	}
	lines := []string{head}
	for _, o := range a.RecentOrders {
		lines = append(lines, fmt.Sprintf("#%s %s at %s", o.OrderNumber, o.Total, o.CreatedAt.Local().Format("15:04")))
	}
	return lines
}

func tableLines(_ time.Time, data any) []string {
	c, ok := data.(reconcile.Collection[domain.Table])
	if !ok {
		return nil
	}
	st := reconcile.SummarizeTables(c.Items)
	lines := []string{fmt.Sprintf("%d tables · %d available · %d occupied · %d reserved",
		st.Total, st.Available, st.Occupied, st.Reserved)}
	for _, t := range c.Items {
		line := fmt.Sprintf("%-8s %2d seats  %s", t.Name, t.Capacity, t.Status)
		if t.ActiveOrderCount > 0 {
			line += fmt.Sprintf(" · %d active orders", t.ActiveOrderCount)
		}
		lines = append(lines, line)
	}
	return lines
}

func shiftLines(_ time.Time, data any) []string {
	st, ok := data.(ShiftState)
	if !ok {
		return nil
	}
	if !st.Open() {
		return []string{"no active shift"}
	}
	sh := st.Shift
	return []string{
		fmt.Sprintf("shift #%d open since %s", sh.ID, sh.OpenedAt.Local().Format("15:04")),
		fmt.Sprintf("opening %s · expected %s · %d transactions",
			sh.OpeningBalance, sh.ExpectedTotal, sh.TotalTransactions),
	}
}

func summaryLines(data any) []string {
	c, ok := data.(reconcile.Collection[domain.Order])
	if !ok {
		return nil
	}
	st := reconcile.SummarizeOrders(c.Items)
	counts := make([]string, 0, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		counts = append(counts, fmt.Sprintf("%s %d", s, st.ByStatus[s]))
	}
	return []string{
		fmt.Sprintf("%d orders · %d unpaid · %d items · revenue %s", st.Count, st.Unpaid, st.TotalItems, st.Revenue),
		strings.Join(counts, " · "),
	}
}

func figureLines(data any) []string {
	f, ok := data.(Figures)
	if !ok {
		return nil
	}
	if len(f) == 0 {
		return []string{"no figures"}
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+figure(f[k]))
	}
	return lines
}

func figure(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
