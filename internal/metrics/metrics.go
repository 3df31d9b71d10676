// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "expirywatch"

// Metrics holds every collector. A nil *Metrics discards observations.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
	ErrorsByRoute   *prometheus.CounterVec
	Panics          prometheus.Counter
	TierAttempts    *prometheus.CounterVec
	DaysLeft        *prometheus.GaugeVec
	Alert           *prometheus.GaugeVec
	Refreshes       prometheus.Counter
	RefreshDuration prometheus.Histogram
}

var current atomic.Pointer[Metrics]

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "endpoint", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"method", "endpoint"}),

		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "HTTP error responses by error code and status",
		}, []string{"error_code", "http_status"}),

		ErrorsByRoute: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_by_endpoint_total",
			Help:      "HTTP error responses by route and error code",
		}, []string{"endpoint", "error_code"}),

		Panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "panics_total",
			Help:      "Recovered handler panics",
		}),

		TierAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tier_attempts_total",
			Help:      "Source tier attempts by tier and result",
		}, []string{"tier", "result"}),

		DaysLeft: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "domain_days_left",
			Help:      "Days until registration expiry, per resolved domain",
		}, []string{"domain"}),

		Alert: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "domain_alert",
			Help:      "1 when the domain is within the alert threshold",
		}, []string{"domain"}),

		Refreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "refreshes_total",
			Help:      "Completed snapshot refreshes",
		}),

		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Snapshot assembly duration",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// SetDefault installs m as the process-wide metrics used by the package
// level helpers.
func SetDefault(m *Metrics) {
	current.Store(m)
}

// Default returns the process-wide metrics, or nil before SetDefault.
func Default() *Metrics {
	return current.Load()
}
