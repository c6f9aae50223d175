package telemetry_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/tillsync/internal/adapters/telemetry"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
	var _ ports.Metrics = (*telemetry.PromMetrics)(nil)
	var _ ports.Metrics = telemetry.NoOpMetrics{}
	var _ sdktrace.SpanProcessor = (*telemetry.Bridge)(nil)
}

func TestOTelTracer_StartRecordsAttributes(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	_, shutdown := telemetry.NewProvider(sr)
	defer func() { _ = shutdown(context.Background()) }()

	tracer := telemetry.NewOTelTracer("test")
	_, span := tracer.Start(context.Background(), "fetch.tables",
		ports.WithAttribute("resource", "tables"),
		ports.WithAttribute("key.hash", uint64(0xabc)),
	)
	span.SetAttribute("attempts", 2)
	span.RecordError(domain.ErrServer)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "fetch.tables", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String("resource", "tables"))
	assert.Contains(t, got.Attributes(), attribute.String("key.hash", "0000000000000abc"))
	assert.Contains(t, got.Attributes(), attribute.Int("attempts", 2))
}

func TestOTelSpan_RecordErrorNil(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	_, shutdown := telemetry.NewProvider(sr)
	defer func() { _ = shutdown(context.Background()) }()

	_, span := telemetry.NewOTelTracer("test").Start(context.Background(), "noop")
	span.RecordError(nil)
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestNoOpTracer_Start(t *testing.T) {
	ctx := context.Background()
	got, span := telemetry.NewNoOpTracer().Start(ctx, "span")

	assert.Equal(t, ctx, got)
	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if matches(m, labels) {
				switch {
				case m.GetCounter() != nil:
					return m.GetCounter().GetValue()
				case m.GetGauge() != nil:
					return m.GetGauge().GetValue()
				case m.GetHistogram() != nil:
					return float64(m.GetHistogram().GetSampleCount())
				}
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok {
			if want != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

func TestPromMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := telemetry.NewPromMetrics(reg)
	require.NoError(t, err)

	m.ObserveFetch("tables", 120*time.Millisecond, nil)
	m.ObserveFetch("tables", time.Second, domain.ErrServer)
	m.CountCacheRead("tables", true)
	m.CountCacheRead("tables", false)
	m.CountCacheRead("tables", false)
	m.CountRetry("kitchen.orders")
	m.CountMutation("orders", "rolled_back")
	m.SetEntries(7)

	assert.InDelta(t, 2, counterValue(t, reg, "tillsync_fetch_duration_seconds", map[string]string{"resource": "tables"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tillsync_fetches_total", map[string]string{"kind": "ok"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tillsync_fetches_total", map[string]string{"kind": domain.KindServer.String()}), 0)
	assert.InDelta(t, 2, counterValue(t, reg, "tillsync_cache_reads_total", map[string]string{"result": "miss"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tillsync_retries_total", map[string]string{"resource": "kitchen.orders"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "tillsync_mutations_total", map[string]string{"outcome": "rolled_back"}), 0)
	assert.InDelta(t, 7, counterValue(t, reg, "tillsync_cache_entries", nil), 0)
}

func TestPromMetrics_ReusesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := telemetry.NewPromMetrics(reg)
	require.NoError(t, err)

	_, err = telemetry.NewPromMetrics(reg)
	assert.NoError(t, err)
}

func TestPromMetrics_ServeHTTP(t *testing.T) {
	m, err := telemetry.NewPromMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	m.SetEntries(3)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "tillsync_cache_entries 3")
}
