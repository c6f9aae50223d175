package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// Span attribute keys read by the Bridge.
const (
	AttrQueryKey  = "query.key"
	AttrErrorKind = "error.kind"
)

const (
	fetchSpan          = "cache.fetch"
	mutationSpanPrefix = "mutation."
)

var kindSentinels = map[string]error{
	domain.KindNetwork.String():           domain.ErrNetwork,
	domain.KindServer.String():            domain.ErrServer,
	domain.KindClient.String():            domain.ErrClient,
	domain.KindRateLimited.String():       domain.ErrRateLimited,
	domain.KindConflict.String():          domain.ErrMutationConflict,
	domain.KindInvalidTransition.String(): domain.ErrInvalidTransition,
}

// Bridge implements sdktrace.SpanProcessor to forward engine spans to a ports.Activity.
// Cache fetches are labelled "fetch <key>" and mutations "<name> <key>".
// Failures carry the domain sentinel of their error kind; cancelled spans complete without error.
type Bridge struct {
	activity ports.Activity
}

// NewBridge returns a new Bridge.
func NewBridge(activity ports.Activity) *Bridge {
	return &Bridge{activity: activity}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.activity == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var parentID string
	if parentSpan := trace.SpanFromContext(parent); parentSpan.SpanContext().IsValid() {
		parentID = parentSpan.SpanContext().SpanID().String()
	}

	b.activity.OnSyncStart(sc.SpanID().String(), parentID, label(s.Name(), s.Attributes()), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.activity == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	b.activity.OnSyncComplete(sc.SpanID().String(), s.EndTime(), spanError(s))
}

func label(name string, attrs []attribute.KeyValue) string {
	key := attrValue(attrs, AttrQueryKey)
	if key == "" {
		return name
	}
	switch {
	case name == fetchSpan:
		return "fetch " + key
	case strings.HasPrefix(name, mutationSpanPrefix):
		return strings.TrimPrefix(name, mutationSpanPrefix) + " " + key
	default:
		return name
	}
}

func spanError(s sdktrace.ReadOnlySpan) error {
	if s.Status().Code != codes.Error {
		return nil
	}
	kind := attrValue(s.Attributes(), AttrErrorKind)
	if kind == domain.KindCancelled.String() {
		return nil
	}
	desc := s.Status().Description
	if desc == "" {
		desc = "sync failed"
	}
	if sentinel, ok := kindSentinels[kind]; ok {
		return zerr.Wrap(sentinel, desc)
	}
	return errors.New(desc)
}

func attrValue(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
