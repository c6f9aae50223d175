package app

import (
	"context"
	"fmt"

	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/backoff"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/tillsync/internal/engine/mutation"
	"go.trai.ch/tillsync/internal/engine/reconcile"
)

// completedPageSize is the page size used when walking the completed orders of a shift.
const completedPageSize = 100

var shiftDependents = []domain.QueryKey{
	domain.NewQueryKey("shifts"),
	domain.NewQueryKey("sales"),
}

// OpenShift opens a shift with openingBalance for the configured user.
func (s *Session) OpenShift(ctx context.Context, openingBalance domain.Money) (domain.Shift, error) {
	q := s.Catalog.ActiveShift()
	if _, err := s.ensure(ctx, q); err != nil {
		return domain.Shift{}, err
	}

	committed, err := s.Executor.Mutate(ctx, mutation.Mutation{
		Name: "shift.open",
		Key:  q.Key,
		Precheck: func(current domain.CacheEntry) error {
			if st, _ := cache.Data[ShiftState](current); st.Open() {
				return domain.Tag(domain.ErrShiftAlreadyOpen, "shift_id", st.Shift.ID)
			}
			return nil
		},
		Optimistic: func(any) (any, error) {
			sh := domain.OpenShift(0, s.clock.Now(), openingBalance)
			return ShiftState{Shift: &sh}, nil
		},
		Remote: func(ctx context.Context, idempotencyKey string) (any, error) {
			req := httpapi.OpenShiftRequest{OpeningBalance: openingBalance}
			return s.backend.OpenShift(ctx, req, idempotencyKey)
		},
		Merge:       mergeShift,
		Invalidates: shiftDependents,
		Retry:       backoff.Standard,
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return shiftOf(committed), nil
}

// CloseShift closes the active shift. Its running totals are checked against the completed orders
// first; closing defaults to the expected total when nil.
func (s *Session) CloseShift(ctx context.Context, closing *domain.Money) (domain.Shift, error) {
	q := s.Catalog.ActiveShift()
	if _, err := s.ensure(ctx, q); err != nil {
		return domain.Shift{}, err
	}
	completed, err := s.completedOrders(ctx)
	if err != nil {
		return domain.Shift{}, err
	}

	var closed domain.Shift
	committed, err := s.Executor.Mutate(ctx, mutation.Mutation{
		Name: "shift.close",
		Key:  q.Key,
		Precheck: func(current domain.CacheEntry) error {
			st, _ := cache.Data[ShiftState](current)
			if !st.Open() {
				return domain.ErrNoActiveShift
			}
			var err error
			closed, err = st.Shift.Close(s.clock.Now(), completed)
			return err
		},
		Optimistic: func(any) (any, error) {
			sh := closed
			return ShiftState{Shift: &sh}, nil
		},
		Remote: func(ctx context.Context, idempotencyKey string) (any, error) {
			req := httpapi.CloseShiftRequest{ClosingBalance: closed.ExpectedTotal}
			if closing != nil {
				req.ClosingBalance = *closing
			}
			return s.backend.CloseShift(ctx, closed.ID, req, idempotencyKey)
		},
		Merge:       mergeShift,
		Invalidates: shiftDependents,
		Retry:       backoff.Standard,
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return shiftOf(committed), nil
}

// completedOrders reads every page of the completed order list.
func (s *Session) completedOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	for page := 1; ; page++ {
		q := s.Catalog.Orders(httpapi.OrderFilters{
			Status: string(domain.OrderCompleted),
			Page:   httpapi.Page{Number: page, Limit: completedPageSize},
		})
		e, err := s.ensure(ctx, q)
		if err != nil {
			return nil, err
		}
		c, _ := cache.Data[reconcile.Collection[domain.Order]](e)
		orders = append(orders, c.Items...)

		// A backend that ignores the page parameter answers page 1 again.
		p := c.Pagination
		if p == nil || p.CurrentPage != page || !p.HasNext() {
			return orders, nil
		}
	}
}

// recordCompleted adds o to the cached active shift it was completed under. The shift is
// revalidated with the other order dependents afterwards.
func (s *Session) recordCompleted(o domain.Order) {
	key := s.Catalog.ActiveShift().Key
	e, ok := s.Store.Peek(key)
	if !ok {
		return
	}
	st, _ := cache.Data[ShiftState](e)
	if !st.Open() || o.ShiftID == nil || *o.ShiftID != st.Shift.ID {
		return
	}
	sh, err := st.Shift.RecordCompleted(o)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("not recording order %d on shift %d: %v", o.ID, st.Shift.ID, err))
		return
	}
	s.Store.SetData(key, ShiftState{Shift: &sh})
}

// mergeShift takes the shift the backend answered with, if it sent one.
func mergeShift(current, server any) any {
	st, _ := current.(ShiftState)
	var sh domain.Shift
	env, _ := server.(*ports.Envelope)
	if err := httpapi.DecodeData(env, &sh); err != nil || sh.ID == 0 {
		return st
	}
	return ShiftState{Shift: &sh}
}

func shiftOf(v any) domain.Shift {
	if st, ok := v.(ShiftState); ok && st.Shift != nil {
		return *st.Shift
	}
	return domain.Shift{}
}
