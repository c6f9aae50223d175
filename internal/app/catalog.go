package app

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.trai.ch/tillsync/internal/adapters/config"
	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/engine/backoff"
	"go.trai.ch/tillsync/internal/engine/cache"
	"go.trai.ch/tillsync/internal/engine/reconcile"
	"go.trai.ch/zerr"
)

// LiveResources are refreshed by "tillsync refresh" when no resource is named.
var LiveResources = []string{
	httpapi.ResourceKitchenOrders,
	httpapi.ResourceKitchenAlerts,
	httpapi.ResourceOrders,
	httpapi.ResourceTables,
	httpapi.ResourceActiveShift,
}

var (
	orderHints = reconcile.Hints{CollectionKeys: []string{"orders"}}
	tableHints = reconcile.Hints{CollectionKeys: []string{"tables"}}
	shiftHints = reconcile.Hints{CollectionKeys: []string{"shifts"}}
	rowHints   = reconcile.Hints{CollectionKeys: []string{"items", "rows", "details", "data"}}
)

// Figures is a flat object of report or summary values, kept as the backend sent it.
type Figures map[string]any

// ShiftState is the cached answer of the active shift query. Shift is nil when no shift is open.
type ShiftState struct {
	Shift *domain.Shift `json:"shift"`
}

// Open reports whether an active shift is known.
func (s ShiftState) Open() bool {
	return s.Shift != nil && s.Shift.IsActive
}

// Report is a read-only report: a row collection, a totals object, or both.
type Report struct {
	Kind   httpapi.ReportKind            `json:"kind"`
	Rows   reconcile.Collection[Figures] `json:"rows"`
	Totals Figures                       `json:"totals,omitempty"`
}

// Catalog builds the queries of every backend resource for one tenant.
type Catalog struct {
	backend  *httpapi.Backend
	settings *config.Settings
}

// NewCatalog creates a Catalog reading through backend with the policies of settings.
func NewCatalog(backend *httpapi.Backend, settings *config.Settings) *Catalog {
	return &Catalog{backend: backend, settings: settings}
}

// Policy returns the effective policy of resource.
func (c *Catalog) Policy(resource string) config.Policy {
	return c.settings.PolicyFor(resource)
}

func (c *Catalog) outlet() string {
	return strconv.FormatInt(c.settings.Backend.OutletID, 10)
}

func (c *Catalog) query(key domain.QueryKey, fetch cache.FetchFunc) cache.Query {
	p := c.Policy(key.Resource())
	retry := retryPolicy(key.Resource())
	if p.Retries != nil {
		retry.MaxAttempts = *p.Retries
	}
	return cache.NewQuery(key, fetch,
		cache.WithStaleTime(p.StaleTime),
		cache.WithGCTime(p.GCTime),
		cache.WithRetry(retry),
	)
}

func retryPolicy(resource string) backoff.Policy {
	root, _, _ := strings.Cut(resource, ".")
	switch root {
	case "kitchen":
		return backoff.Realtime
	case "reports", "finance":
		return backoff.Report
	default:
		return backoff.Standard
	}
}

// keyOf builds a key from name/value pairs, leaving out empty values.
func keyOf(resource string, kv ...string) domain.QueryKey {
	out := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		out = append(out, kv[i], kv[i+1])
	}
	return domain.NewQueryKey(resource, out...)
}

func pageParams(p httpapi.Page) (string, string) {
	var page, limit string
	if p.Number > 0 {
		page = strconv.Itoa(p.Number)
	}
	if p.Limit > 0 {
		limit = strconv.Itoa(p.Limit)
	}
	return page, limit
}

func collection[T any](hints reconcile.Hints, call func(context.Context) (*ports.Envelope, error)) cache.FetchFunc {
	return func(ctx context.Context, prev any) (any, error) {
		p, ok := prev.(reconcile.Collection[T])
		if !ok {
			p = reconcile.Empty[T]()
		}
		env, err := call(ctx)
		return reconcile.Normalize(p, env, err, hints)
	}
}

func figures(call func(context.Context) (*ports.Envelope, error)) cache.FetchFunc {
	return func(ctx context.Context, _ any) (any, error) {
		env, err := call(ctx)
		if err != nil {
			return nil, err
		}
		out := Figures{}
		if err := httpapi.DecodeData(env, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// KitchenOrders is the kitchen queue of the outlet.
func (c *Catalog) KitchenOrders() cache.Query {
	outletID := c.settings.Backend.OutletID
	return c.query(keyOf(httpapi.ResourceKitchenOrders, "outlet", c.outlet()),
		collection[domain.Order](orderHints, func(ctx context.Context) (*ports.Envelope, error) {
			return c.backend.KitchenOrders(ctx, outletID)
		}))
}

// KitchenAlerts is the new-order alert of the outlet.
func (c *Catalog) KitchenAlerts() cache.Query {
	outletID := c.settings.Backend.OutletID
	return c.query(keyOf(httpapi.ResourceKitchenAlerts, "outlet", c.outlet()),
		func(ctx context.Context, _ any) (any, error) {
			env, err := c.backend.KitchenNotifications(ctx, outletID)
			if err != nil {
				return nil, err
			}
			alert := domain.KitchenAlert{RecentOrders: []domain.OrderSummary{}}
			if err := httpapi.DecodeData(env, &alert); err != nil {
				return nil, err
			}
			return alert, nil
		})
}

// Orders is the order list of the outlet narrowed by f.
func (c *Catalog) Orders(f httpapi.OrderFilters) cache.Query {
	page, limit := pageParams(f.Page)
	var date string
	if f.Date.Preset != "" || f.Date.IsCustom() {
		date = f.Date.String()
	}
	key := keyOf(httpapi.ResourceOrders,
		"outlet", c.outlet(), "status", f.Status, "range", date, "page", page, "limit", limit)
	return c.query(key, collection[domain.Order](orderHints, func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.Orders(ctx, f)
	}))
}

// Tables is the table list of the outlet.
func (c *Catalog) Tables(f httpapi.TableFilters) cache.Query {
	b := c.settings.Backend
	key := keyOf(httpapi.ResourceTables,
		"business", strconv.FormatInt(b.BusinessID, 10), "outlet", c.outlet(), "status", f.Status)
	return c.query(key, collection[domain.Table](tableHints, func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.Tables(ctx, b.BusinessID, b.OutletID, f)
	}))
}

// ActiveShift is the open shift of the configured user.
func (c *Catalog) ActiveShift() cache.Query {
	userID := c.settings.Backend.UserID
	key := keyOf(httpapi.ResourceActiveShift, "user", strconv.FormatInt(userID, 10))
	return c.query(key, func(ctx context.Context, _ any) (any, error) {
		env, err := c.backend.ActiveShift(ctx, userID)
		if err != nil {
			return nil, err
		}
		var shift *domain.Shift
		if err := httpapi.DecodeData(env, &shift); err != nil {
			return nil, err
		}
		return ShiftState{Shift: shift}, nil
	})
}

// ShiftHistory is a page of past shifts.
func (c *Catalog) ShiftHistory(p httpapi.Page) cache.Query {
	page, limit := pageParams(p)
	key := keyOf(httpapi.ResourceShiftHistory, "page", page, "limit", limit)
	return c.query(key, collection[domain.Shift](shiftHints, func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.ShiftHistory(ctx, p)
	}))
}

// SalesStats are the sales counters of the outlet for r.
func (c *Catalog) SalesStats(r httpapi.DateRange) cache.Query {
	outletID := c.settings.Backend.OutletID
	key := keyOf(httpapi.ResourceSalesStats, "outlet", c.outlet(), "range", r.String())
	return c.query(key, figures(func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.SalesStats(ctx, r, outletID)
	}))
}

// SalesOrders is a page of the orders sold in r.
func (c *Catalog) SalesOrders(p httpapi.Page, r httpapi.DateRange) cache.Query {
	page, limit := pageParams(p)
	key := keyOf(httpapi.ResourceSalesOrders, "range", r.String(), "page", page, "limit", limit)
	return c.query(key, collection[domain.Order](orderHints, func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.SalesOrders(ctx, p, r)
	}))
}

// FinanceSummary is income, expenses and profit for r.
func (c *Catalog) FinanceSummary(r httpapi.DateRange) cache.Query {
	key := keyOf(httpapi.ResourceFinanceSummary, "range", r.String())
	return c.query(key, figures(func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.FinanceSummary(ctx, r)
	}))
}

// Finance is a page of a finance collection.
func (c *Catalog) Finance(res httpapi.FinanceResource, p httpapi.Page, r httpapi.DateRange) cache.Query {
	page, limit := pageParams(p)
	var date string
	if r.Preset != "" || r.IsCustom() {
		date = r.String()
	}
	key := keyOf(res.Resource(), "range", date, "page", page, "limit", limit)
	hints := reconcile.Hints{CollectionKeys: []string{string(res)}}
	return c.query(key, collection[Figures](hints, func(ctx context.Context) (*ports.Envelope, error) {
		return c.backend.ListFinance(ctx, res, p, r)
	}))
}

// Report is a page of the report kind for r. Reports without a row list keep their object as Totals.
func (c *Catalog) Report(kind httpapi.ReportKind, p httpapi.Page, r httpapi.DateRange) cache.Query {
	page, limit := pageParams(p)
	key := keyOf(httpapi.ResourceReports, "kind", string(kind), "range", r.String(), "page", page, "limit", limit)
	return c.query(key, func(ctx context.Context, prev any) (any, error) {
		env, err := c.backend.Report(ctx, kind, p, r)
		if err != nil {
			return nil, err
		}
		rep := Report{Kind: kind, Rows: reconcile.Empty[Figures]()}
		if old, ok := prev.(Report); ok {
			rep.Rows = old.Rows
		}
		rows, err := reconcile.Normalize(rep.Rows, env, nil, rowHints)
		switch {
		case err == nil:
			rep.Rows = rows
		case errors.Is(err, domain.ErrUnknownShape):
			rep.Rows = reconcile.Empty[Figures]()
			rep.Totals = Figures{}
			if err := httpapi.DecodeData(env, &rep.Totals); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		return rep, nil
	})
}

// Lookup returns the query of a resource name as used on the command line: a live resource,
// "sales.stats", "sales.orders", "shifts.history", "finance.summary", "finance.<collection>" or
// "reports.<kind>". Date-scoped resources cover today.
func (c *Catalog) Lookup(name string) (cache.Query, error) {
	switch name {
	case httpapi.ResourceKitchenOrders:
		return c.KitchenOrders(), nil
	case httpapi.ResourceKitchenAlerts:
		return c.KitchenAlerts(), nil
	case httpapi.ResourceOrders:
		return c.Orders(httpapi.OrderFilters{}), nil
	case httpapi.ResourceTables:
		return c.Tables(httpapi.TableFilters{}), nil
	case httpapi.ResourceActiveShift:
		return c.ActiveShift(), nil
	case httpapi.ResourceShiftHistory:
		return c.ShiftHistory(httpapi.Page{}), nil
	case httpapi.ResourceSalesStats:
		return c.SalesStats(httpapi.Today), nil
	case httpapi.ResourceSalesOrders:
		return c.SalesOrders(httpapi.Page{}, httpapi.Today), nil
	case httpapi.ResourceFinanceSummary:
		return c.FinanceSummary(httpapi.Today), nil
	}

	if rest, ok := strings.CutPrefix(name, "finance."); ok {
		res, err := httpapi.ParseFinanceResource(rest)
		if err != nil {
			return cache.Query{}, err
		}
		return c.Finance(res, httpapi.Page{}, httpapi.DateRange{}), nil
	}
	if rest, ok := strings.CutPrefix(name, httpapi.ResourceReports+"."); ok {
		kind, err := httpapi.ParseReportKind(rest)
		if err != nil {
			return cache.Query{}, err
		}
		return c.Report(kind, httpapi.Page{}, httpapi.Today), nil
	}
	return cache.Query{}, domain.Tag(domain.ErrUnknownResource, "resource", name)
}

// Decode restores a persisted value of resource to the type its query stores.
func (c *Catalog) Decode(resource string, payload []byte) (any, error) {
	switch {
	case resource == httpapi.ResourceKitchenOrders,
		resource == httpapi.ResourceOrders,
		resource == httpapi.ResourceSalesOrders:
		return decodeAs[reconcile.Collection[domain.Order]](payload)
	case resource == httpapi.ResourceTables:
		return decodeAs[reconcile.Collection[domain.Table]](payload)
	case resource == httpapi.ResourceKitchenAlerts:
		return decodeAs[domain.KitchenAlert](payload)
	case resource == httpapi.ResourceActiveShift:
		return decodeAs[ShiftState](payload)
	case resource == httpapi.ResourceShiftHistory:
		return decodeAs[reconcile.Collection[domain.Shift]](payload)
	case resource == httpapi.ResourceSalesStats, resource == httpapi.ResourceFinanceSummary:
		return decodeAs[Figures](payload)
	case resource == httpapi.ResourceReports:
		return decodeAs[Report](payload)
	case strings.HasPrefix(resource, "finance."):
		return decodeAs[reconcile.Collection[Figures]](payload)
	default:
		return nil, domain.Tag(domain.ErrUnknownResource, "resource", resource)
	}
}

func decodeAs[T any](payload []byte) (any, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrSnapshotReadFailed, err), "decode snapshot")
	}
	return v, nil
}
