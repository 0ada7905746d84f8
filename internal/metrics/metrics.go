// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LatencyBuckets are the upper bounds, in seconds, of the latency histogram.
var LatencyBuckets = []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0, 10.0}

var labels = []string{"endpoint", "method", "status_code"}

// Metrics groups the per-request collectors and the registry they live in.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Errors   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers the API collectors on reg. Pass prometheus.NewRegistry()
// in tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Total number of API requests",
			},
			labels,
		),
		Latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_latency_seconds",
				Help:    "API request latency in seconds",
				Buckets: LatencyBuckets,
			},
			labels,
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Total number of API errors",
			},
			labels,
		),
		registry: reg,
	}
}

// NewDefault is New plus the process and Go runtime collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return New(reg)
}

// Observe records one finished request. Statuses >= 400 also count as errors.
func (m *Metrics) Observe(endpoint, method string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)

	m.Requests.WithLabelValues(endpoint, method, code).Inc()
	m.Latency.WithLabelValues(endpoint, method, code).Observe(elapsed.Seconds())
	if status >= http.StatusBadRequest {
		m.Errors.WithLabelValues(endpoint, method, code).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
