package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/tillsync/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func expectRequest(t *testing.T, transport *mocks.MockTransport, check func(ports.Request)) {
	t.Helper()
	transport.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.Request) (*ports.Envelope, error) {
			check(req)
			return &ports.Envelope{Success: true}, nil
		})
}

func TestBackend_Routes(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		call   func(context.Context, *httpapi.Backend) (*ports.Envelope, error)
		method string
		path   string
		query  map[string]string
	}{
		{
			name:   "sales stats",
			call:   func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) { return b.SalesStats(ctx, httpapi.Today, 3) },
			method: http.MethodGet, path: "/v1/sales/stats",
			query: map[string]string{"date_range": "today", "outlet_id": "3"},
		},
		{
			name: "sales orders custom range",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.SalesOrders(ctx, httpapi.Page{Number: 2, Limit: 10}, httpapi.Custom(day, day.AddDate(0, 0, 6)))
			},
			method: http.MethodGet, path: "/v1/sales/orders",
			query: map[string]string{"page": "2", "limit": "10", "date_range": "custom", "date_from": "2026-03-04", "date_to": "2026-03-10"},
		},
		{
			name:   "kitchen orders",
			call:   func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) { return b.KitchenOrders(ctx, 3) },
			method: http.MethodGet, path: "/v1/kitchen/orders",
			query: map[string]string{"outlet_id": "3"},
		},
		{
			name:   "kitchen notifications",
			call:   func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) { return b.KitchenNotifications(ctx, 3) },
			method: http.MethodGet, path: "/v1/kitchen/orders/notifications",
		},
		{
			name: "confirm order",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.ConfirmOrder(ctx, 9, "k")
			},
			method: http.MethodPost, path: "/v1/kitchen/orders/9/confirm",
		},
		{
			name: "kitchen status",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.KitchenUpdateStatus(ctx, 9, domain.OrderPreparing, "k")
			},
			method: http.MethodPost, path: "/v1/kitchen/orders/9/status",
		},
		{
			name: "order status",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.UpdateOrderStatus(ctx, 9, domain.OrderCompleted, "k")
			},
			method: http.MethodPatch, path: "/v1/orders/9/status",
		},
		{
			name: "cancel order",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.CancelOrder(ctx, 9, "guest left", "k")
			},
			method: http.MethodPost, path: "/v1/orders/9/cancel",
		},
		{
			name: "tables",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.Tables(ctx, 12, 3, httpapi.TableFilters{Status: "occupied"})
			},
			method: http.MethodGet, path: "/v1/tables",
			query: map[string]string{"business_id": "12", "outlet_id": "3", "status": "occupied"},
		},
		{
			name: "table status",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.UpdateTableStatus(ctx, 4, domain.TableReserved, "k")
			},
			method: http.MethodPost, path: "/v1/tables/4/status",
		},
		{
			name: "delete table",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.DeleteTable(ctx, 4, "k")
			},
			method: http.MethodDelete, path: "/v1/tables/4",
		},
		{
			name: "close shift",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.CloseShift(ctx, 7, httpapi.CloseShiftRequest{ClosingBalance: domain.Amount(350000)}, "k")
			},
			method: http.MethodPost, path: "/v1/shifts/7/close",
		},
		{
			name: "update budget",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.UpdateFinance(ctx, httpapi.Budgets, 2, map[string]any{"amount": 1}, "k")
			},
			method: http.MethodPut, path: "/v1/budgets/2",
		},
		{
			name: "promo usage report",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.Report(ctx, httpapi.ReportPromoUsage, httpapi.Page{}, httpapi.DateRange{Preset: "month"})
			},
			method: http.MethodGet, path: "/v1/promo-usage/analytics",
			query: map[string]string{"date_range": "month"},
		},
		{
			name: "payment types report",
			call: func(ctx context.Context, b *httpapi.Backend) (*ports.Envelope, error) {
				return b.Report(ctx, httpapi.ReportPaymentTypes, httpapi.Page{Number: 1}, httpapi.Today)
			},
			method: http.MethodGet, path: "/v1/reports/payment-types",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := mocks.NewMockTransport(gomock.NewController(t))
			expectRequest(t, transport, func(req ports.Request) {
				assert.Equal(t, tt.method, req.Method)
				assert.Equal(t, tt.path, req.Path)
				for k, v := range tt.query {
					assert.Equal(t, v, req.Query.Get(k), k)
				}
				if tt.method != http.MethodGet {
					assert.Equal(t, "k", req.IdempotencyKey)
				}
			})

			_, err := tt.call(context.Background(), httpapi.NewBackend(transport))
			require.NoError(t, err)
		})
	}
}

func TestBackend_ActiveShiftTimeout(t *testing.T) {
	transport := mocks.NewMockTransport(gomock.NewController(t))
	expectRequest(t, transport, func(req ports.Request) {
		assert.Equal(t, "/v1/shifts/active", req.Path)
		assert.Equal(t, httpapi.ActiveShiftTimeout, req.Timeout)
		assert.Equal(t, "7", req.Query.Get("user_id"))
	})

	_, err := httpapi.NewBackend(transport).ActiveShift(context.Background(), 7)
	require.NoError(t, err)
}

func TestBackend_NoActiveShiftIsNotAnError(t *testing.T) {
	transport := mocks.NewMockTransport(gomock.NewController(t))
	body := json.RawMessage(`{"success":false,"has_active_shift":false,"message":"No active shift"}`)
	transport.EXPECT().Do(gomock.Any(), gomock.Any()).
		Return(&ports.Envelope{Success: false, Message: "No active shift", Body: body}, domain.ErrRequestRejected)

	env, err := httpapi.NewBackend(transport).ActiveShift(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, env.Success)
	var shift *domain.Shift
	require.NoError(t, httpapi.DecodeData(env, &shift))
	assert.Nil(t, shift)
}

func TestBackend_ActiveShiftOtherRejection(t *testing.T) {
	transport := mocks.NewMockTransport(gomock.NewController(t))
	body := json.RawMessage(`{"success":false,"message":"Outlet not assigned"}`)
	transport.EXPECT().Do(gomock.Any(), gomock.Any()).
		Return(&ports.Envelope{Success: false, Body: body}, domain.ErrRequestRejected)

	_, err := httpapi.NewBackend(transport).ActiveShift(context.Background(), 7)

	require.ErrorIs(t, err, domain.ErrRequestRejected)
}

func TestDecodeData(t *testing.T) {
	var s domain.Shift
	env := &ports.Envelope{Success: true, Data: json.RawMessage(`{"id":4,"status":"open","opening_balance":100000}`)}

	require.NoError(t, httpapi.DecodeData(env, &s))
	assert.Equal(t, int64(4), s.ID)
	assert.True(t, s.IsActive)

	err := httpapi.DecodeData(&ports.Envelope{Data: json.RawMessage(`[1,2]`)}, &s)
	require.ErrorIs(t, err, domain.ErrDecodeFailed)
}

func TestDateRange_String(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "today", httpapi.DateRange{}.String())
	assert.Equal(t, "week", httpapi.DateRange{Preset: "week"}.String())
	assert.Equal(t, "2026-03-04..2026-03-05", httpapi.Custom(day, day.AddDate(0, 0, 1)).String())
}

func TestBackend_WithTimeouts(t *testing.T) {
	transport := mocks.NewMockTransport(gomock.NewController(t))
	timeouts := map[string]time.Duration{httpapi.ResourceTables: 3 * time.Second}
	b := httpapi.NewBackend(transport, httpapi.WithTimeouts(func(resource string) time.Duration {
		return timeouts[resource]
	}))

	expectRequest(t, transport, func(req ports.Request) {
		assert.Equal(t, 3*time.Second, req.Timeout)
	})
	_, err := b.Tables(context.Background(), 1, 3, httpapi.TableFilters{})
	require.NoError(t, err)

	expectRequest(t, transport, func(req ports.Request) {
		assert.Equal(t, httpapi.ListTimeout, req.Timeout, "unresolved resources keep the endpoint timeout")
	})
	_, err = b.KitchenOrders(context.Background(), 3)
	require.NoError(t, err)
}

func TestParseFinanceResource(t *testing.T) {
	r, err := httpapi.ParseFinanceResource("taxes")
	require.NoError(t, err)
	assert.Equal(t, "finance.taxes", r.Resource())

	_, err = httpapi.ParseFinanceResource("payroll")
	require.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestParseReportKind(t *testing.T) {
	k, err := httpapi.ParseReportKind("payment-types")
	require.NoError(t, err)
	assert.Equal(t, httpapi.ReportPaymentTypes, k)

	_, err = httpapi.ParseReportKind("inventory")
	require.ErrorIs(t, err, domain.ErrUnknownResource)
}
