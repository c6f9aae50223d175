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

// SetTableStatus changes the occupancy status of tableID.
func (s *Session) SetTableStatus(ctx context.Context, tableID int64, status domain.TableStatus) (domain.Table, error) {
	q := s.Catalog.Tables(httpapi.TableFilters{})
	if _, err := s.ensure(ctx, q); err != nil {
		return domain.Table{}, err
	}

	committed, err := s.Executor.Mutate(ctx, mutation.Mutation{
		Name: "table.status",
		Key:  q.Key,
		Precheck: func(current domain.CacheEntry) error {
			c, _ := cache.Data[reconcile.Collection[domain.Table]](current)
			if _, ok := reconcile.FindTable(c.Items, tableID); !ok {
				return domain.Tag(domain.ErrTableNotFound, "table_id", tableID)
			}
			return nil
		},
		Optimistic: func(current any) (any, error) {
			c, _ := current.(reconcile.Collection[domain.Table])
			t, _ := reconcile.FindTable(c.Items, tableID)
			t.Status = status
			return withTable(c, t), nil
		},
		Remote: func(ctx context.Context, idempotencyKey string) (any, error) {
			return s.backend.UpdateTableStatus(ctx, tableID, status, idempotencyKey)
		},
		Merge: func(current, server any) any {
			c, _ := current.(reconcile.Collection[domain.Table])
			var t domain.Table
			env, _ := server.(*ports.Envelope)
			if err := httpapi.DecodeData(env, &t); err != nil || t.ID != tableID {
				return c
			}
			return withTable(c, t)
		},
		Invalidates: []domain.QueryKey{domain.NewQueryKey(httpapi.ResourceTables)},
		Retry:       backoff.Standard,
	})
	if err != nil {
		return domain.Table{}, err
	}

	c, _ := committed.(reconcile.Collection[domain.Table])
	t, _ := reconcile.FindTable(c.Items, tableID)
	return t, nil
}

func withTable(c reconcile.Collection[domain.Table], t domain.Table) reconcile.Collection[domain.Table] {
	out := c.Clone()
	out.Items, _ = reconcile.ReplaceTable(out.Items, t)
	for name, g := range out.Groups {
		out.Groups[name], _ = reconcile.ReplaceTable(g, t)
	}
	return out
}
