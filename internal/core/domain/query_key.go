package domain

import (
	"slices"
	"strconv"
	"strings"
	"unique"

	"github.com/cespare/xxhash/v2"
)

// QueryKey identifies a cached query: a resource name plus the business parameters that scope it.
// Two keys with the same resource and parameters are the same key regardless of parameter order.
type QueryKey struct {
	resource string
	params   []Param
}

// Param is a single business parameter of a query key.
type Param struct {
	Name  string
	Value string
}

// NewQueryKey creates a key for resource with alternating name/value parameters.
// A trailing name without a value is ignored.
func NewQueryKey(resource string, kv ...string) QueryKey {
	params := make([]Param, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params = append(params, Param{Name: kv[i], Value: kv[i+1]})
	}
	slices.SortFunc(params, func(a, b Param) int {
		return strings.Compare(a.Name, b.Name)
	})
	return QueryKey{resource: resource, params: params}
}

// Resource returns the resource part of the key, e.g. "kitchen.orders".
func (k QueryKey) Resource() string {
	return k.resource
}

// Param returns the value of the named parameter.
func (k QueryKey) Param(name string) (string, bool) {
	for _, p := range k.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// With returns a copy of the key with the named parameter set.
func (k QueryKey) With(name, value string) QueryKey {
	kv := make([]string, 0, 2*len(k.params)+2)
	for _, p := range k.params {
		if p.Name != name {
			kv = append(kv, p.Name, p.Value)
		}
	}
	kv = append(kv, name, value)
	return NewQueryKey(k.resource, kv...)
}

// String returns the canonical form, e.g. "kitchen.orders?outlet=3".
func (k QueryKey) String() string {
	if len(k.params) == 0 {
		return k.resource
	}
	var b strings.Builder
	b.WriteString(k.resource)
	for i, p := range k.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Handle returns the interned canonical form, suitable as a map key.
func (k QueryKey) Handle() unique.Handle[string] {
	return unique.Make(k.String())
}

// Hash returns a stable 64-bit hash of the canonical form as a hex string.
func (k QueryKey) Hash() string {
	return strconv.FormatUint(xxhash.Sum64String(k.String()), 16)
}

// Matches reports whether k is selected by pattern.
// A pattern selects a key when its resource equals the key's resource or is a dotted prefix of it,
// and every pattern parameter is present on the key with the same value.
// The zero pattern selects every key.
func (k QueryKey) Matches(pattern QueryKey) bool {
	if pattern.resource != "" &&
		k.resource != pattern.resource &&
		!strings.HasPrefix(k.resource, pattern.resource+".") {
		return false
	}
	for _, p := range pattern.params {
		v, ok := k.Param(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// IsZero reports whether the key has no resource.
func (k QueryKey) IsZero() bool {
	return k.resource == "" && len(k.params) == 0
}
