package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/core/domain"
)

func TestOrder_UnmarshalEagerLoadedItems(t *testing.T) {
	payload := `{
		"id": 12,
		"order_number": "ORD-20251017-0012",
		"status": "preparing",
		"payment_status": "pending",
		"type": "dine_in",
		"table_id": 4,
		"total": "125000.00",
		"created_at": "2025-10-17T10:15:00.000000Z",
		"order_items": [
			{"product_id": 1, "quantity": 2, "notes": "pedas", "product": {"name": "Nasi Goreng"}},
			{"product_id": 9, "quantity": 1, "product": null}
		]
	}`

	var o domain.Order
	require.NoError(t, json.Unmarshal([]byte(payload), &o))

	assert.Equal(t, int64(12), o.ID)
	assert.Equal(t, domain.OrderPreparing, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, domain.Amount(125000), o.Total)
	require.NotNil(t, o.TableID)
	assert.Equal(t, int64(4), *o.TableID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Nasi Goreng", o.Items[0].ProductName)
	assert.Equal(t, "pedas", o.Items[0].Notes)
	assert.Equal(t, 3, o.ItemCount())
	assert.False(t, o.CreatedAt.IsZero())
}

func TestOrder_UnmarshalNoItems(t *testing.T) {
	var o domain.Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"pending","total":0}`), &o))

	assert.NotNil(t, o.Items)
	assert.Empty(t, o.Items)
	assert.Nil(t, o.TableID)
}

func TestOrder_UnmarshalAliases(t *testing.T) {
	payload := `{"id":3,"status":"ready","order_type":"takeaway","total_amount":"42500.50","ordered_at":"2025-10-17T09:00:00Z"}`

	var o domain.Order
	require.NoError(t, json.Unmarshal([]byte(payload), &o))

	assert.Equal(t, domain.OrderTakeaway, o.Type)
	assert.Equal(t, "42500.50", o.Total.String())
	assert.Equal(t, 2025, o.CreatedAt.Year())
}
