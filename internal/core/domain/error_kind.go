package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for retry and notification decisions.
type ErrorKind uint8

const (
	// KindUnknown is any error outside the taxonomy.
	KindUnknown ErrorKind = iota
	// KindNetwork means no response was received (includes timeouts).
	KindNetwork
	// KindServer means the backend answered with a 5xx status.
	KindServer
	// KindClient means the backend answered with a 4xx status other than 429, or rejected the envelope.
	KindClient
	// KindRateLimited means the backend answered with 429.
	KindRateLimited
	// KindCancelled means the request was superseded or its context cancelled.
	KindCancelled
	// KindConflict means a mutation for the same key was already in flight.
	KindConflict
	// KindInvalidTransition means the order state machine rejected the event.
	KindInvalidTransition
)

// String returns the lower-case name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindRateLimited:
		return "rate_limited"
	case KindCancelled:
		return "cancelled"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	default:
		return "unknown"
	}
}

// Transient reports whether errors of this kind are retried and surfaced only after retries run out.
func (k ErrorKind) Transient() bool {
	return k == KindNetwork || k == KindServer || k == KindRateLimited
}

// Classify maps an error onto the failure taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrMutationConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrForbiddenEvent):
		return KindInvalidTransition
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrServer):
		return KindServer
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case errors.Is(err, ErrClient), errors.Is(err, ErrRequestRejected):
		return KindClient
	default:
		return KindUnknown
	}
}

// ResponseError is a non-2xx answer from the backend.
// It unwraps to ErrServer, ErrRateLimited or ErrClient depending on the status code.
type ResponseError struct {
	StatusCode int
	Message    string
}

// NewResponseError creates a ResponseError for the given status and backend message.
func NewResponseError(status int, message string) *ResponseError {
	return &ResponseError{StatusCode: status, Message: message}
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the taxonomy sentinel for the status code.
func (e *ResponseError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrClient
	}
}

// StatusCode extracts the HTTP status carried by err, or 0 when there was no response.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
