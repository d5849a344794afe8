// Package observability provides Prometheus metrics for the relay.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediarelay"

// Metrics holds all application metrics. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Dispatch metrics
	DispatchTotal    *prometheus.CounterVec
	ExtractionMisses *prometheus.CounterVec

	// Relay metrics
	RelaysInProgress prometheus.Gauge
	RelayBytesTotal  *prometheus.CounterVec
	RelayDuration    *prometheus.HistogramVec
	RelayAborted     *prometheus.CounterVec
}

// New creates all metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total number of dispatched download requests by platform and outcome",
		}, []string{"platform", "outcome"}),
		ExtractionMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "misses_total",
			Help:      "Total number of page extractions that found no media URL",
		}, []string{"platform", "reason"}),

		RelaysInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "in_progress",
			Help:      "Number of media relays currently streaming",
		}),
		RelayBytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "bytes_total",
			Help:      "Total bytes relayed to clients",
		}, []string{"platform"}),
		RelayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "duration_seconds",
			Help:      "Histogram of relay duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"platform"}),
		RelayAborted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "aborted_total",
			Help:      "Total number of relays aborted after headers were sent",
		}, []string{"platform"}),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a finished HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveDispatch records the outcome of one dispatch
func (m *Metrics) ObserveDispatch(platform, outcome string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(platform, outcome).Inc()
}

// ObserveExtractionMiss records an extractor that found nothing
func (m *Metrics) ObserveExtractionMiss(platform, reason string) {
	if m == nil {
		return
	}
	m.ExtractionMisses.WithLabelValues(platform, reason).Inc()
}

// RelayStarted marks a relay as streaming and returns the function that ends it
func (m *Metrics) RelayStarted(platform string) func(written int64, aborted bool) {
	if m == nil {
		return func(int64, bool) {}
	}

	start := time.Now()
	m.RelaysInProgress.Inc()

	return func(written int64, aborted bool) {
		m.RelaysInProgress.Dec()
		m.RelayBytesTotal.WithLabelValues(platform).Add(float64(written))
		m.RelayDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
		if aborted {
			m.RelayAborted.WithLabelValues(platform).Inc()
		}
	}
}
