package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/tillsync/internal/core/domain"
)

func TestQueryKey_Canonical(t *testing.T) {
	a := domain.NewQueryKey("sales.orders", "page", "2", "outlet", "3", "from", "2025-10-01")
	b := domain.NewQueryKey("sales.orders", "outlet", "3", "from", "2025-10-01", "page", "2")

	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Handle(), b.Handle())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, "sales.orders?from=2025-10-01&outlet=3&page=2", a.String())

	c := a.With("page", "3")
	assert.NotEqual(t, a.Hash(), c.Hash())
	v, ok := c.Param("page")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestQueryKey_Matches(t *testing.T) {
	key := domain.NewQueryKey("kitchen.orders", "outlet", "3")

	tests := []struct {
		name    string
		pattern domain.QueryKey
		want    bool
	}{
		{"zero pattern", domain.QueryKey{}, true},
		{"exact", domain.NewQueryKey("kitchen.orders", "outlet", "3"), true},
		{"resource prefix", domain.NewQueryKey("kitchen"), true},
		{"partial word is not a prefix", domain.NewQueryKey("kitch"), false},
		{"other outlet", domain.NewQueryKey("kitchen", "outlet", "4"), false},
		{"missing param", domain.NewQueryKey("kitchen", "page", "1"), false},
		{"other resource", domain.NewQueryKey("tables"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, key.Matches(tt.pattern))
		})
	}
}
