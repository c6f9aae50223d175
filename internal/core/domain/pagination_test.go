package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/tillsync/internal/core/domain"
)

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i + 1
	}

	tests := []struct {
		name     string
		page     int
		wantLen  int
		wantPage int
		wantNext bool
	}{
		{"first page", 1, 10, 1, true},
		{"second page", 2, 10, 2, true},
		{"last page", 3, 3, 3, false},
		{"past the end clamps", 9, 3, 3, false},
		{"zero clamps to first", 0, 10, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, p := domain.Paginate(items, tt.page, 10)

			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantPage, p.CurrentPage)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, 23, p.TotalItems)
			assert.Equal(t, 10, p.ItemsPerPage)
			assert.Equal(t, tt.wantNext, p.HasNext())
		})
	}

	last, _ := domain.Paginate(items, 3, 10)
	assert.Equal(t, []int{21, 22, 23}, last)
}

func TestPaginate_Empty(t *testing.T) {
	got, p := domain.Paginate([]string(nil), 1, 10)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
}

func TestPaginate_CopiesPage(t *testing.T) {
	items := []int{1, 2, 3}
	got, _ := domain.Paginate(items, 1, 2)
	got[0] = 100
	assert.Equal(t, 1, items[0])
}
