package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/tillsync/internal/engine/reconcile"
	"golang.org/x/sync/errgroup"
)

// RefreshBoard fetches the named resources once, all at the same time, and renders them as a board.
// Every resource gets a section; the returned error joins the failed fetches.
func (s *Session) RefreshBoard(ctx context.Context, names []string) (ports.Board, error) {
	if len(names) == 0 {
		names = LiveResources
	}
	queries := make([]cache.Query, 0, len(names))
	for _, name := range names {
		q, err := s.Catalog.Lookup(name)
		if err != nil {
			return ports.Board{}, err
		}
		s.warm(q)
		s.Store.GetOrFetch(q)
		queries = append(queries, q)
	}

	errs := make([]error, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			errs[i] = s.Poller.TriggerManualRefresh(ctx, q.Key)
			return nil
		})
	}
	_ = g.Wait()

	now := s.clock.Now()
	b := ports.Board{Title: "Refresh", At: now, Sections: make([]ports.Section, 0, len(queries))}
	for i, q := range queries {
		e, _ := s.Store.Peek(q.Key)
		resource := q.Key.Resource()
		b.Sections = append(b.Sections, section(now, Panel{
			Title: names[i],
			Query: q,
			Render: func(now time.Time, data any) []string {
				return describe(now, resource, data)
			},
		}, e))
	}
	return b, errors.Join(errs...)
}

// describe renders any cached value as board lines.
func describe(now time.Time, resource string, data any) []string {
	switch v := data.(type) {
	case reconcile.Collection[domain.Order]:
		if resource == httpapi.ResourceKitchenOrders {
			return orderLines(now, domain.RoleKitchen, v,
				domain.OrderPending, domain.OrderConfirmed, domain.OrderPreparing, domain.OrderReady)
		}
		return append(summaryLines(v), pageLine(v.Len(), v.Pagination)...)
	case reconcile.Collection[domain.Table]:
		return tableLines(now, v)
	case reconcile.Collection[domain.Shift]:
		lines := make([]string, 0, v.Len()+1)
		for _, sh := range v.Items {
			lines = append(lines, fmt.Sprintf("shift #%d %s · expected %s · %d transactions",
				sh.ID, sh.OpenedAt.Local().Format(time.DateOnly), sh.ExpectedTotal, sh.TotalTransactions))
		}
		return append(lines, pageLine(v.Len(), v.Pagination)...)
	case reconcile.Collection[Figures]:
		return pageLine(v.Len(), v.Pagination)
	case domain.KitchenAlert:
		return alertLines(now, v)
	case ShiftState:
		return shiftLines(now, v)
	case Figures:
		return figureLines(v)
	case Report:
		lines := pageLine(v.Rows.Len(), v.Rows.Pagination)
		if v.Totals != nil {
			lines = append(lines, figureLines(v.Totals)...)
		}
		return lines
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func pageLine(count int, p *domain.Pagination) []string {
	if p == nil {
		return []string{fmt.Sprintf("%d rows", count)}
	}
	return []string{fmt.Sprintf("%d rows · page %d of %d · %d total",
		count, p.CurrentPage, p.TotalPages, p.TotalItems)}
}
