package reconcile

import (
	"encoding/json"
	"slices"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

// Identifiable is implemented by entities that can be deduplicated when groups are flattened.
type Identifiable interface {
	Identity() int64
}

// Collection is the canonical form of every list the views read. Items is never nil.
type Collection[T any] struct {
	Items      []T
	Pagination *domain.Pagination
	Groups     map[string][]T
	Shape      ShapeKind
}

// Empty returns an empty collection.
func Empty[T any]() Collection[T] {
	return Collection[T]{Items: []T{}}
}

// Len returns the number of items.
func (c Collection[T]) Len() int {
	return len(c.Items)
}

// Group returns the named group, or an empty slice.
func (c Collection[T]) Group(name string) []T {
	if g, ok := c.Groups[name]; ok {
		return g
	}
	return []T{}
}

// Clone returns a copy whose slices can be modified without touching c.
func (c Collection[T]) Clone() Collection[T] {
	out := Collection[T]{Items: make([]T, len(c.Items)), Shape: c.Shape}
	copy(out.Items, c.Items)
	if c.Pagination != nil {
		p := *c.Pagination
		out.Pagination = &p
	}
	if c.Groups != nil {
		out.Groups = make(map[string][]T, len(c.Groups))
		for name, g := range c.Groups {
			out.Groups[name] = append([]T{}, g...)
		}
	}
	return out
}

// Normalize decodes env into a canonical collection.
// When err is set or the envelope was rejected, prev is returned unchanged together with the error,
// so the last good collection stays visible while the failure is surfaced.
func Normalize[T any](prev Collection[T], env *ports.Envelope, err error, hints Hints) (Collection[T], error) {
	if err != nil {
		return prev, err
	}
	if env == nil {
		return Empty[T](), nil
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return prev, domain.Tag(domain.ErrRequestRejected, "message", msg)
	}

	payload := env.Body
	if len(payload) == 0 {
		payload = env.Data
	}
	c, err := Decode[T](payload, hints)
	if err != nil {
		return prev, err
	}
	return c, nil
}

// Decode classifies payload and decodes it into a canonical collection.
func Decode[T any](payload json.RawMessage, hints Hints) (Collection[T], error) {
	shape, err := DetectShape(payload, hints)
	if err != nil {
		return Collection[T]{}, err
	}
	return FromShape[T](shape)
}

// FromShape decodes a classified payload. Grouped payloads without a flat list are flattened
// in group order, dropping entities that appear in more than one group.
func FromShape[T any](shape ResponseShape) (Collection[T], error) {
	c := Collection[T]{Items: []T{}, Shape: shape.Kind, Pagination: shape.Pagination}

	if len(shape.Items) > 0 {
		items, err := decodeItems[T](shape.Items)
		if err != nil {
			return Collection[T]{}, err
		}
		c.Items = items
	}

	if shape.Kind != ShapeGrouped {
		return c, nil
	}

	c.Groups = make(map[string][]T, len(shape.Groups))
	for _, name := range sortedKeys(shape.Groups) {
		g, err := decodeItems[T](shape.Groups[name])
		if err != nil {
			return Collection[T]{}, err
		}
		c.Groups[name] = g
	}
	if len(shape.Items) == 0 {
		c.Items = flatten(c.Groups)
	}
	return c, nil
}

func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.Tag(domain.ErrDecodeFailed, "cause", err.Error())
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func flatten[T any](groups map[string][]T) []T {
	out := []T{}
	seen := make(map[int64]struct{})
	for _, name := range sortedKeys(groups) {
		for _, item := range groups[name] {
			if id, ok := any(item).(Identifiable); ok {
				if _, dup := seen[id.Identity()]; dup {
					continue
				}
				seen[id.Identity()] = struct{}{}
			}
			out = append(out, item)
		}
	}
	return out
}

// KitchenGroups is the order in which kitchen groups are flattened: most urgent first.
var KitchenGroups = []string{
	"pending_paid",
	"pending_dine_in",
	"pending_self_service",
	"confirmed",
	"preparing",
	"ready",
}

// sortedKeys returns the known kitchen groups first, in KitchenGroups order, then the rest sorted.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for _, name := range KitchenGroups {
		if _, ok := m[name]; ok {
			keys = append(keys, name)
		}
	}
	rest := make([]string, 0, len(m))
	for name := range m {
		if !slices.Contains(KitchenGroups, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}
