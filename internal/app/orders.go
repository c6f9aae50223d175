package app

import (
	"context"

	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/backoff"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/tillsync/internal/engine/mutation"
	"go.trai.ch/tillsync/internal/engine/reconcile"
)

// Keys revalidated after an order changes: it moves between kitchen groups, changes sales figures,
// shift totals and table occupancy.
var orderDependents = []domain.QueryKey{
	domain.NewQueryKey("kitchen"),
	domain.NewQueryKey(httpapi.ResourceOrders),
	domain.NewQueryKey("sales"),
	domain.NewQueryKey("shifts"),
	domain.NewQueryKey(httpapi.ResourceTables),
}

// OrderChange is the result of an order event.
type OrderChange struct {
	From  domain.OrderStatus
	Order domain.Order
}

// ordersQuery is the collection role works on.
func (s *Session) ordersQuery(role domain.Role) cache.Query {
	if role == domain.RoleKitchen {
		return s.Catalog.KitchenOrders()
	}
	return s.Catalog.Orders(httpapi.OrderFilters{})
}

// TransitionOrder fires ev on orderID as role. Permission and state legality are checked against the
// cached order before anything is written; the change is shown at once and rolled back if the
// backend refuses it.
func (s *Session) TransitionOrder(ctx context.Context, role domain.Role, orderID int64, ev domain.Event) (OrderChange, error) {
	if err := domain.Authorize(role, ev); err != nil {
		return OrderChange{}, err
	}

	q := s.ordersQuery(role)
	if _, err := s.ensure(ctx, q); err != nil {
		return OrderChange{}, err
	}

	var from domain.OrderStatus
	committed, err := s.Executor.Mutate(ctx, mutation.Mutation{
		Name: "order." + string(ev),
		Key:  q.Key,
		Precheck: func(current domain.CacheEntry) error {
			c, _ := cache.Data[reconcile.Collection[domain.Order]](current)
			o, ok := reconcile.FindOrder(c.Items, orderID)
			if !ok {
				return domain.Tag(domain.ErrOrderNotFound, "order_id", orderID)
			}
			from = o.Status
			_, err := domain.ApplyTransition(o, ev)
			return err
		},
		Optimistic: func(current any) (any, error) {
			c, _ := current.(reconcile.Collection[domain.Order])
			o, _ := reconcile.FindOrder(c.Items, orderID)
			next, err := domain.ApplyTransition(o, ev)
			if err != nil {
				return nil, err
			}
			return withOrder(c, next), nil
		},
		Remote: func(ctx context.Context, idempotencyKey string) (any, error) {
			return s.sendOrderEvent(ctx, role, orderID, ev, idempotencyKey)
		},
		Merge: func(current, server any) any {
			c, _ := current.(reconcile.Collection[domain.Order])
			var o domain.Order
			env, _ := server.(*ports.Envelope)
			if err := httpapi.DecodeData(env, &o); err != nil || o.ID != orderID {
				return c
			}
			return withOrder(c, o)
		},
		Invalidates: orderDependents,
		Retry:       backoff.Standard,
	})
	if err != nil {
		return OrderChange{}, err
	}

	c, _ := committed.(reconcile.Collection[domain.Order])
	o, _ := reconcile.FindOrder(c.Items, orderID)
	if o.Status == domain.OrderCompleted {
		s.recordCompleted(o)
	}
	return OrderChange{From: from, Order: o}, nil
}

// sendOrderEvent calls the endpoint the dashboard of role uses for ev.
func (s *Session) sendOrderEvent(
	ctx context.Context,
	role domain.Role,
	orderID int64,
	ev domain.Event,
	idempotencyKey string,
) (*ports.Envelope, error) {
	if ev == domain.EventCancel {
		return s.backend.CancelOrder(ctx, orderID, "", idempotencyKey)
	}
	if role == domain.RoleKitchen && ev == domain.EventConfirm {
		return s.backend.ConfirmOrder(ctx, orderID, idempotencyKey)
	}

	to := targetStatus(ev)
	if role == domain.RoleKitchen {
		return s.backend.KitchenUpdateStatus(ctx, orderID, to, idempotencyKey)
	}
	return s.backend.UpdateOrderStatus(ctx, orderID, to, idempotencyKey)
}

func targetStatus(ev domain.Event) domain.OrderStatus {
	for _, from := range domain.OrderStatuses {
		if to, ok := domain.NextStatus(from, ev); ok {
			return to
		}
	}
	return ""
}

// withOrder returns a copy of c with o replaced in the flat list and in every group.
func withOrder(c reconcile.Collection[domain.Order], o domain.Order) reconcile.Collection[domain.Order] {
	out := c.Clone()
	out.Items, _ = reconcile.ReplaceOrder(out.Items, o)
	for name, g := range out.Groups {
		out.Groups[name], _ = reconcile.ReplaceOrder(g, o)
	}
	return out
}
