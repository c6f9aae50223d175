package domain

import "time"

// EntryStatus is the load state of a cache entry.
type EntryStatus uint8

const (
	// StatusIdle means the entry exists but nothing has been fetched (e.g. the query is disabled).
	StatusIdle EntryStatus = iota
	// StatusLoading means no data is available yet and a fetch is in flight.
	StatusLoading
	// StatusSuccess means Data holds the latest successfully stored value.
	StatusSuccess
	// StatusError means the latest fetch failed; Data still holds the last good value, if any.
	StatusError
)

// String returns the lower-case name of the status.
func (s EntryStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// CacheEntry is a point-in-time copy of a cached query result.
// Data is shared between copies and must be treated as immutable.
type CacheEntry struct {
	Key         QueryKey
	Data        any
	Status      EntryStatus
	FetchedAt   time.Time
	Err         error
	Subscribers int
	Invalidated bool
	Fetching    bool
}

// HasData reports whether the entry holds a stored value.
func (e CacheEntry) HasData() bool {
	return e.Data != nil
}

// Snapshot is a persisted last-known-good value for a query key.
type Snapshot struct {
	KeyHash   string
	Key       string
	Resource  string
	Payload   []byte
	FetchedAt time.Time
}
