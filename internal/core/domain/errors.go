package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrNetwork is returned when a request received no response.
	ErrNetwork = zerr.New("network error")

	// ErrTimeout is returned when a request exceeded its per-request timeout.
	ErrTimeout = zerr.New("request timed out")

	// ErrServer is returned when the backend answered with a 5xx status.
	ErrServer = zerr.New("server error")

	// ErrClient is returned when the backend answered with a 4xx status other than 429.
	ErrClient = zerr.New("client error")

	// ErrRateLimited is returned when the backend answered with 429.
	ErrRateLimited = zerr.New("rate limited")

	// ErrCancelled is returned when a request was superseded or its context was cancelled.
	ErrCancelled = zerr.New("request cancelled")

	// ErrRequestRejected is returned when the backend envelope reports success=false.
	ErrRequestRejected = zerr.New("request rejected by backend")

	// ErrMutationConflict is returned when a mutation is already in flight for the same key.
	ErrMutationConflict = zerr.New("mutation already in flight for key")

	// ErrInvalidTransition is returned when an order event is not legal from the current status.
	ErrInvalidTransition = zerr.New("invalid order status transition")

	// ErrForbiddenEvent is returned when a role is not allowed to fire an order event.
	ErrForbiddenEvent = zerr.New("role may not trigger this event")

	// ErrUnknownEvent is returned when an order event name cannot be parsed.
	ErrUnknownEvent = zerr.New("unknown order event")

	// ErrOrderNotFound is returned when an order is not present in the cached collection.
	ErrOrderNotFound = zerr.New("order not found")

	// ErrTableNotFound is returned when a table is not present in the cached collection.
	ErrTableNotFound = zerr.New("table not found")

	// ErrInvalidTableStatus is returned when a table status cannot be parsed.
	ErrInvalidTableStatus = zerr.New("invalid table status")

	// ErrShiftClosed is returned when a closed shift is mutated.
	ErrShiftClosed = zerr.New("shift is closed")

	// ErrNoActiveShift is returned when a shift operation requires an open shift.
	ErrNoActiveShift = zerr.New("no active shift")

	// ErrShiftAlreadyOpen is returned when a shift is opened while another one is active.
	ErrShiftAlreadyOpen = zerr.New("a shift is already open")

	// ErrShiftMismatch is returned when shift totals disagree with the completed orders at close time.
	ErrShiftMismatch = zerr.New("shift totals do not match completed orders")

	// ErrUnknownShape is returned when a response payload matches no known collection shape.
	ErrUnknownShape = zerr.New("unrecognized response shape")

	// ErrDecodeFailed is returned when a response payload cannot be decoded.
	ErrDecodeFailed = zerr.New("failed to decode response payload")

	// ErrQueryNotRegistered is returned when a refresh targets a key no query was registered for.
	ErrQueryNotRegistered = zerr.New("no query registered for key")

	// ErrQueryDisabled is returned when a disabled query is fetched explicitly.
	ErrQueryDisabled = zerr.New("query is disabled")

	// ErrInvalidMoney is returned when a monetary amount cannot be parsed.
	ErrInvalidMoney = zerr.New("invalid monetary amount")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the configuration fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrSnapshotOpenFailed is returned when the snapshot database cannot be opened.
	ErrSnapshotOpenFailed = zerr.New("failed to open snapshot store")

	// ErrSnapshotReadFailed is returned when snapshots cannot be read.
	ErrSnapshotReadFailed = zerr.New("failed to read snapshots")

	// ErrSnapshotWriteFailed is returned when a snapshot cannot be written.
	ErrSnapshotWriteFailed = zerr.New("failed to write snapshot")

	// ErrUnknownView is returned when a dashboard view name is not recognized.
	ErrUnknownView = zerr.New("unknown view")

	// ErrUnknownResource is returned when a refresh names an unknown resource.
	ErrUnknownResource = zerr.New("unknown resource")

	// ErrRefreshFailed is returned when a one-shot refresh could not fetch every resource.
	ErrRefreshFailed = zerr.New("refresh failed")
)

// Tag attaches a key/value pair to err. The result always satisfies errors.Is(result, err),
// so sentinels stay classifiable after gaining context.
func Tag(err error, key string, value any) error {
	tagged := zerr.With(err, key, value)
	if errors.Is(tagged, err) {
		return tagged
	}
	return &taggedError{tagged: tagged, cause: err}
}

type taggedError struct {
	tagged error
	cause  error
}

func (e *taggedError) Error() string { return e.tagged.Error() }

func (e *taggedError) Is(target error) bool { return errors.Is(e.cause, target) }

// Message returns the message of the tagged error without its chain.
func (e *taggedError) Message() string {
	if m, ok := e.tagged.(interface{ Message() string }); ok {
		return m.Message()
	}
	return e.tagged.Error()
}

// Metadata returns the attached key/value pairs.
func (e *taggedError) Metadata() map[string]any {
	if m, ok := e.tagged.(interface{ Metadata() map[string]any }); ok {
		return m.Metadata()
	}
	return nil
}

func (e *taggedError) Unwrap() error { return errors.Unwrap(e.tagged) }
