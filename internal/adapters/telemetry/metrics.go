package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/tillsync/internal/core/domain"
)

// Namespace prefixes every metric name.
const Namespace = "tillsync"

// PromMetrics implements ports.Metrics with Prometheus collectors on a private registry.
type PromMetrics struct {
	registry *prometheus.Registry

	fetchDuration *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	cacheReads    *prometheus.CounterVec
	retries       *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	entries       prometheus.Gauge
}

// NewPromMetrics creates the collectors and registers them on registry.
func NewPromMetrics(registry *prometheus.Registry) (*PromMetrics, error) {
	m := &PromMetrics{
		registry: registry,
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of backend fetches in seconds, retries included",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"resource"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetches_total",
				Help:      "Total number of completed fetches by error kind",
			},
			[]string{"resource", "kind"},
		),
		cacheReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_reads_total",
				Help:      "Total number of cache reads by result",
			},
			[]string{"resource", "result"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "retries_total",
				Help:      "Total number of scheduled retries",
			},
			[]string{"resource"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "mutations_total",
				Help:      "Total number of mutations by outcome",
			},
			[]string{"resource", "outcome"},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "cache_entries",
				Help:      "Current number of cache entries",
			},
		),
	}

	collectors := []prometheus.Collector{m.fetchDuration, m.fetches, m.cacheReads, m.retries, m.mutations, m.entries}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *PromMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ServeHTTP serves the registry in the Prometheus exposition format.
func (m *PromMetrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// ObserveFetch records a completed fetch.
func (m *PromMetrics) ObserveFetch(resource string, elapsed time.Duration, err error) {
	m.fetchDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
	kind := "ok"
	if err != nil {
		kind = domain.Classify(err).String()
	}
	m.fetches.WithLabelValues(resource, kind).Inc()
}

// CountCacheRead records whether a read was served fresh.
func (m *PromMetrics) CountCacheRead(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheReads.WithLabelValues(resource, result).Inc()
}

// CountRetry records a scheduled retry.
func (m *PromMetrics) CountRetry(resource string) {
	m.retries.WithLabelValues(resource).Inc()
}

// CountMutation records a mutation outcome.
func (m *PromMetrics) CountMutation(resource, outcome string) {
	m.mutations.WithLabelValues(resource, outcome).Inc()
}

// SetEntries reports the number of live cache entries.
func (m *PromMetrics) SetEntries(n int) {
	m.entries.Set(float64(n))
}
