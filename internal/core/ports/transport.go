package ports

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Request is a single backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Timeout bounds the request; zero means the transport default.
	Timeout time.Duration
	// IdempotencyKey is sent with mutations and reused across retries.
	IdempotencyKey string
}

// Envelope is the {success, data, error} wrapper every backend answer is normalized into.
type Envelope struct {
	Success bool
	Data    json.RawMessage
	Error   string
	Message string
	// Body is the full response body, for endpoints that report beside "data".
	Body json.RawMessage
}

// Transport performs backend calls.
//
//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks
type Transport interface {
	// Do performs the request. A non-2xx status, a missing response or a rejected
	// envelope is returned as an error classified by domain.Classify.
	Do(ctx context.Context, req Request) (*Envelope, error)
}
