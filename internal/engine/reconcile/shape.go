// Package reconcile turns the backend's heterogeneous collection payloads into one canonical form.
package reconcile

import (
	"bytes"
	"encoding/json"

	"go.trai.ch/tillsync/internal/core/domain"
)

// ShapeKind names a recognized payload layout.
type ShapeKind uint8

const (
	// ShapeEmpty is null, an empty body or {"data": null}.
	ShapeEmpty ShapeKind = iota
	// ShapeArray is a bare JSON array.
	ShapeArray
	// ShapeData is {"data": [...]}.
	ShapeData
	// ShapeCollection is {"<collection>": [...]}, the collection key coming from the hints.
	ShapeCollection
	// ShapePaginator is a Laravel paginator: {"data"|"<collection>": [...], "current_page", "last_page", ...}.
	ShapePaginator
	// ShapePaginated is {"data": [...], "pagination": {...}}.
	ShapePaginated
	// ShapeGrouped is the kitchen payload: {"orders": [...], "grouped": {"<group>": [...]}}.
	ShapeGrouped
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeArray:
		return "array"
	case ShapeData:
		return "data"
	case ShapeCollection:
		return "collection"
	case ShapePaginator:
		return "paginator"
	case ShapePaginated:
		return "paginated"
	case ShapeGrouped:
		return "grouped"
	default:
		return "empty"
	}
}

// Hints tell the detector which object keys may hold the collection.
type Hints struct {
	CollectionKeys []string
}

// ResponseShape is a classified payload. Items holds the raw collection array, Groups the raw
// per-group arrays of grouped payloads, Pagination the page descriptor of paginated payloads.
type ResponseShape struct {
	Kind       ShapeKind
	Key        string
	Items      json.RawMessage
	Groups     map[string]json.RawMessage
	Pagination *domain.Pagination
}

// paginationWire accepts both the Laravel paginator field names and the explicit descriptor names.
type paginationWire struct {
	CurrentPage  *int `json:"current_page"`
	LastPage     *int `json:"last_page"`
	TotalPages   *int `json:"total_pages"`
	PerPage      *int `json:"per_page"`
	ItemsPerPage *int `json:"items_per_page"`
	Total        *int `json:"total"`
	TotalItems   *int `json:"total_items"`
}

func (w paginationWire) isPaginator() bool {
	return w.CurrentPage != nil && (w.LastPage != nil || w.TotalPages != nil)
}

func (w paginationWire) descriptor(count int) *domain.Pagination {
	p := domain.Pagination{
		CurrentPage:  deref(w.CurrentPage, 1),
		TotalPages:   deref(w.LastPage, deref(w.TotalPages, 1)),
		TotalItems:   deref(w.Total, deref(w.TotalItems, count)),
		ItemsPerPage: deref(w.PerPage, deref(w.ItemsPerPage, count)),
	}
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	return &p
}

func deref(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// DetectShape classifies data. Objects that wrap their collection in "data" are unwrapped
// recursively, so {"success": true, "data": {"orders": [...], "current_page": 1, ...}} is a paginator.
func DetectShape(data json.RawMessage, hints Hints) (ResponseShape, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ResponseShape{Kind: ShapeEmpty}, nil
	case trimmed[0] == '[':
		return ResponseShape{Kind: ShapeArray, Items: trimmed}, nil
	case trimmed[0] != '{':
		return ResponseShape{}, domain.Tag(domain.ErrUnknownShape, "payload", preview(trimmed))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return ResponseShape{}, domain.Tag(domain.ErrDecodeFailed, "cause", err.Error())
	}
	var page paginationWire
	if err := json.Unmarshal(trimmed, &page); err != nil {
		page = paginationWire{}
	}

	if inner, ok := obj["data"]; ok {
		inner = bytes.TrimSpace(inner)
		switch {
		case len(inner) == 0, bytes.Equal(inner, []byte("null")):
			return ResponseShape{Kind: ShapeEmpty}, nil
		case inner[0] == '[':
			return withPagination(ResponseShape{Kind: ShapeData, Key: "data", Items: inner}, obj, page)
		case inner[0] == '{':
			return DetectShape(inner, hints)
		}
	}

	if rawGroups, ok := obj["grouped"]; ok {
		return grouped(obj, rawGroups, hints)
	}

	for _, key := range hints.CollectionKeys {
		items, ok := obj[key]
		if !ok || !isArray(items) {
			continue
		}
		shape := ResponseShape{Kind: ShapeCollection, Key: key, Items: bytes.TrimSpace(items)}
		if page.isPaginator() {
			shape.Kind = ShapePaginator
			shape.Pagination = page.descriptor(countItems(shape.Items))
		}
		return shape, nil
	}

	return ResponseShape{}, domain.Tag(domain.ErrUnknownShape, "payload", preview(trimmed))
}

func withPagination(shape ResponseShape, obj map[string]json.RawMessage, page paginationWire) (ResponseShape, error) {
	count := countItems(shape.Items)
	if page.isPaginator() {
		shape.Kind = ShapePaginator
		shape.Pagination = page.descriptor(count)
		return shape, nil
	}
	raw, ok := obj["pagination"]
	if !ok || !isObject(raw) {
		return shape, nil
	}
	var nested paginationWire
	if err := json.Unmarshal(raw, &nested); err != nil {
		return ResponseShape{}, domain.Tag(domain.ErrDecodeFailed, "cause", err.Error())
	}
	shape.Kind = ShapePaginated
	shape.Pagination = nested.descriptor(count)
	return shape, nil
}

func grouped(obj map[string]json.RawMessage, rawGroups json.RawMessage, hints Hints) (ResponseShape, error) {
	shape := ResponseShape{Kind: ShapeGrouped, Groups: make(map[string]json.RawMessage)}
	if isObject(rawGroups) {
		var groups map[string]json.RawMessage
		if err := json.Unmarshal(rawGroups, &groups); err != nil {
			return ResponseShape{}, domain.Tag(domain.ErrDecodeFailed, "cause", err.Error())
		}
		for name, g := range groups {
			if isArray(g) {
				shape.Groups[name] = bytes.TrimSpace(g)
			}
		}
	}
	keys := append([]string{"orders"}, hints.CollectionKeys...)
	for _, key := range keys {
		if items, ok := obj[key]; ok && isArray(items) {
			shape.Key = key
			shape.Items = bytes.TrimSpace(items)
			break
		}
	}
	return shape, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func countItems(raw json.RawMessage) int {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0
	}
	return len(items)
}

func preview(raw []byte) string {
	const limit = 64
	if len(raw) > limit {
		return string(raw[:limit]) + "…"
	}
	return string(raw)
}
