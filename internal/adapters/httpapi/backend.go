package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

// Request timeouts of the live endpoints.
const (
	ActiveShiftTimeout = 5 * time.Second
	ListTimeout        = 20 * time.Second
)

// Resource names of the read endpoints. They double as query key resources and config policy names.
const (
	ResourceSalesStats     = "sales.stats"
	ResourceSalesOrders    = "sales.orders"
	ResourceActiveShift    = "shifts.active"
	ResourceShiftHistory   = "shifts.history"
	ResourceOrders         = "orders"
	ResourceKitchenOrders  = "kitchen.orders"
	ResourceKitchenAlerts  = "kitchen.notifications"
	ResourceTables         = "tables"
	ResourceFinanceSummary = "finance.summary"
	ResourceReports        = "reports"
)

// Backend exposes the typed backend operations. Every operation returns the envelope the transport
// produced, so the reconciler sees the raw collection shape.
type Backend struct {
	transport ports.Transport
	timeouts  func(resource string) time.Duration
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithTimeouts resolves the request timeout of every read by resource name.
// A zero result keeps the built-in timeout of the endpoint.
func WithTimeouts(fn func(resource string) time.Duration) BackendOption {
	return func(b *Backend) { b.timeouts = fn }
}

// NewBackend creates a Backend on transport.
func NewBackend(transport ports.Transport, opts ...BackendOption) *Backend {
	b := &Backend{transport: transport}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) get(
	ctx context.Context,
	resource, path string,
	q url.Values,
	timeout time.Duration,
) (*ports.Envelope, error) {
	if b.timeouts != nil {
		if t := b.timeouts(resource); t > 0 {
			timeout = t
		}
	}
	return b.transport.Do(ctx, ports.Request{Method: http.MethodGet, Path: path, Query: q, Timeout: timeout})
}

func (b *Backend) send(ctx context.Context, method, path string, body any, idempotencyKey string) (*ports.Envelope, error) {
	return b.transport.Do(ctx, ports.Request{Method: method, Path: path, Body: body, IdempotencyKey: idempotencyKey})
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// SalesStats returns the sales counters of the outlet for r.
func (b *Backend) SalesStats(ctx context.Context, r DateRange, outletID int64) (*ports.Envelope, error) {
	q := url.Values{}
	r.apply(q)
	if outletID > 0 {
		q.Set("outlet_id", id(outletID))
	}
	return b.get(ctx, ResourceSalesStats, "/v1/sales/stats", q, 0)
}

// SalesOrders returns a page of the orders sold in r.
func (b *Backend) SalesOrders(ctx context.Context, page Page, r DateRange) (*ports.Envelope, error) {
	q := url.Values{}
	page.apply(q)
	r.apply(q)
	return b.get(ctx, ResourceSalesOrders, "/v1/sales/orders", q, 0)
}

// shiftStatus is the body of GET /shifts/active.
type shiftStatus struct {
	HasActiveShift *bool `json:"has_active_shift"`
}

// ActiveShift returns the open shift of userID. A backend answering that no shift is open yields
// a successful envelope with null data.
func (b *Backend) ActiveShift(ctx context.Context, userID int64) (*ports.Envelope, error) {
	q := url.Values{}
	if userID > 0 {
		q.Set("user_id", id(userID))
	}
	env, err := b.get(ctx, ResourceActiveShift, "/v1/shifts/active", q, ActiveShiftTimeout)
	if err == nil || env == nil || !errors.Is(err, domain.ErrRequestRejected) {
		return env, err
	}
	var status shiftStatus
	if jsonErr := json.Unmarshal(env.Body, &status); jsonErr == nil && status.HasActiveShift != nil && !*status.HasActiveShift {
		return &ports.Envelope{Success: true, Data: json.RawMessage("null"), Body: env.Body, Message: env.Message}, nil
	}
	return env, err
}

// OpenShiftRequest is the body of POST /shifts/open.
type OpenShiftRequest struct {
	OpeningBalance domain.Money `json:"opening_balance"`
	Notes          string       `json:"notes,omitempty"`
}

// OpenShift opens a shift for the current user.
func (b *Backend) OpenShift(ctx context.Context, req OpenShiftRequest, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPost, "/v1/shifts/open", req, idempotencyKey)
}

// CloseShiftRequest is the body of POST /shifts/{id}/close.
type CloseShiftRequest struct {
	ClosingBalance domain.Money `json:"closing_balance"`
	Notes          string       `json:"notes,omitempty"`
}

// CloseShift closes shiftID.
func (b *Backend) CloseShift(ctx context.Context, shiftID int64, req CloseShiftRequest, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPost, "/v1/shifts/"+id(shiftID)+"/close", req, idempotencyKey)
}

// ShiftHistory returns a page of past shifts.
func (b *Backend) ShiftHistory(ctx context.Context, page Page) (*ports.Envelope, error) {
	q := url.Values{}
	page.apply(q)
	return b.get(ctx, ResourceShiftHistory, "/v1/shifts/history", q, 0)
}

// Orders returns the order list of the outlet.
func (b *Backend) Orders(ctx context.Context, f OrderFilters) (*ports.Envelope, error) {
	q := url.Values{}
	f.Page.apply(q)
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Date.Preset != "" || f.Date.IsCustom() {
		f.Date.apply(q)
	}
	return b.get(ctx, ResourceOrders, "/v1/orders", q, ListTimeout)
}

// UpdateOrderStatus sets the status of orderID.
func (b *Backend) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, idempotencyKey string) (*ports.Envelope, error) {
	body := map[string]string{"status": string(status)}
	return b.send(ctx, http.MethodPatch, "/v1/orders/"+id(orderID)+"/status", body, idempotencyKey)
}

// CancelOrder cancels orderID.
func (b *Backend) CancelOrder(ctx context.Context, orderID int64, reason, idempotencyKey string) (*ports.Envelope, error) {
	body := map[string]string{"reason": reason}
	return b.send(ctx, http.MethodPost, "/v1/orders/"+id(orderID)+"/cancel", body, idempotencyKey)
}

// KitchenOrders returns the kitchen queue of the outlet, grouped by urgency.
func (b *Backend) KitchenOrders(ctx context.Context, outletID int64) (*ports.Envelope, error) {
	q := url.Values{}
	if outletID > 0 {
		q.Set("outlet_id", id(outletID))
	}
	return b.get(ctx, ResourceKitchenOrders, "/v1/kitchen/orders", q, ListTimeout)
}

// KitchenUpdateStatus moves orderID to status from the kitchen display.
func (b *Backend) KitchenUpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus, idempotencyKey string) (*ports.Envelope, error) {
	body := map[string]string{"status": string(status)}
	return b.send(ctx, http.MethodPost, "/v1/kitchen/orders/"+id(orderID)+"/status", body, idempotencyKey)
}

// ConfirmOrder confirms a pending orderID.
func (b *Backend) ConfirmOrder(ctx context.Context, orderID int64, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPost, "/v1/kitchen/orders/"+id(orderID)+"/confirm", struct{}{}, idempotencyKey)
}

// KitchenNotifications returns the new-order alert of the outlet.
func (b *Backend) KitchenNotifications(ctx context.Context, outletID int64) (*ports.Envelope, error) {
	q := url.Values{}
	if outletID > 0 {
		q.Set("outlet_id", id(outletID))
	}
	return b.get(ctx, ResourceKitchenAlerts, "/v1/kitchen/orders/notifications", q, 0)
}

// Tables returns the tables of the outlet.
func (b *Backend) Tables(ctx context.Context, businessID, outletID int64, f TableFilters) (*ports.Envelope, error) {
	q := url.Values{}
	if businessID > 0 {
		q.Set("business_id", id(businessID))
	}
	if outletID > 0 {
		q.Set("outlet_id", id(outletID))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return b.get(ctx, ResourceTables, "/v1/tables", q, ListTimeout)
}

// TableInput is the body of table create and update.
type TableInput struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	OutletID int64  `json:"outlet_id,omitempty"`
}

// CreateTable creates a table.
func (b *Backend) CreateTable(ctx context.Context, in TableInput, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPost, "/v1/tables", in, idempotencyKey)
}

// UpdateTable replaces the attributes of tableID.
func (b *Backend) UpdateTable(ctx context.Context, tableID int64, in TableInput, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPut, "/v1/tables/"+id(tableID), in, idempotencyKey)
}

// DeleteTable deletes tableID.
func (b *Backend) DeleteTable(ctx context.Context, tableID int64, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodDelete, "/v1/tables/"+id(tableID), nil, idempotencyKey)
}

// UpdateTableStatus sets the occupancy of tableID.
func (b *Backend) UpdateTableStatus(ctx context.Context, tableID int64, status domain.TableStatus, idempotencyKey string) (*ports.Envelope, error) {
	body := map[string]string{"status": string(status)}
	return b.send(ctx, http.MethodPost, "/v1/tables/"+id(tableID)+"/status", body, idempotencyKey)
}

// FinanceSummary returns income, expenses and profit for r.
func (b *Backend) FinanceSummary(ctx context.Context, r DateRange) (*ports.Envelope, error) {
	q := url.Values{}
	r.apply(q)
	return b.get(ctx, ResourceFinanceSummary, "/v1/finance/summary", q, 0)
}

// FinanceResource names a CRUD collection of the finance module.
type FinanceResource string

// Finance collections.
const (
	Budgets  FinanceResource = "budgets"
	Taxes    FinanceResource = "taxes"
	Expenses FinanceResource = "expenses"
)

// Resource returns the query resource of the collection, e.g. "finance.budgets".
func (r FinanceResource) Resource() string {
	return "finance." + string(r)
}

// ParseFinanceResource parses a finance collection name.
func ParseFinanceResource(s string) (FinanceResource, error) {
	switch r := FinanceResource(s); r {
	case Budgets, Taxes, Expenses:
		return r, nil
	default:
		return "", domain.Tag(domain.ErrUnknownResource, "resource", s)
	}
}

// ListFinance returns a page of res.
func (b *Backend) ListFinance(ctx context.Context, res FinanceResource, page Page, r DateRange) (*ports.Envelope, error) {
	q := url.Values{}
	page.apply(q)
	if r.Preset != "" || r.IsCustom() {
		r.apply(q)
	}
	return b.get(ctx, res.Resource(), "/v1/"+string(res), q, 0)
}

// CreateFinance creates an item of res from body.
func (b *Backend) CreateFinance(ctx context.Context, res FinanceResource, body any, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPost, "/v1/"+string(res), body, idempotencyKey)
}

// UpdateFinance replaces item itemID of res.
func (b *Backend) UpdateFinance(ctx context.Context, res FinanceResource, itemID int64, body any, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodPut, fmt.Sprintf("/v1/%s/%d", res, itemID), body, idempotencyKey)
}

// DeleteFinance deletes item itemID of res.
func (b *Backend) DeleteFinance(ctx context.Context, res FinanceResource, itemID int64, idempotencyKey string) (*ports.Envelope, error) {
	return b.send(ctx, http.MethodDelete, fmt.Sprintf("/v1/%s/%d", res, itemID), nil, idempotencyKey)
}

// ReportKind names a read-only report endpoint.
type ReportKind string

// Report endpoints.
const (
	ReportSalesChart   ReportKind = "sales/chart-data"
	ReportSalesDetail  ReportKind = "sales/detail"
	ReportSalesSummary ReportKind = "sales/summary"
	ReportPaymentTypes ReportKind = "payment-types"
	ReportPromoUsage   ReportKind = "promo-usage"
)

// ReportKinds lists every report endpoint.
var ReportKinds = []ReportKind{
	ReportSalesChart, ReportSalesDetail, ReportSalesSummary, ReportPaymentTypes, ReportPromoUsage,
}

// ParseReportKind parses a report name.
func ParseReportKind(s string) (ReportKind, error) {
	for _, k := range ReportKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", domain.Tag(domain.ErrUnknownResource, "report", s)
}

// Report returns a page of the report kind for r.
func (b *Backend) Report(ctx context.Context, kind ReportKind, page Page, r DateRange) (*ports.Envelope, error) {
	q := url.Values{}
	page.apply(q)
	r.apply(q)
	path := "/v1/reports/" + string(kind)
	if kind == ReportPromoUsage {
		path = "/v1/promo-usage/analytics"
	}
	return b.get(ctx, ResourceReports, path, q, 0)
}

// DecodeData decodes the data of env into out. A null or missing data leaves out untouched.
func DecodeData(env *ports.Envelope, out any) error {
	if env == nil {
		return nil
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.Tag(domain.ErrDecodeFailed, "cause", err.Error())
	}
	return nil
}
