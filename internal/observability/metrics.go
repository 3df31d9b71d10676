package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/namelens/expirywatch/internal/metrics"
)

var (
	// Registry holds every exported collector
	Registry *prometheus.Registry

	// Metrics is the application collector set registered on Registry
	Metrics *metrics.Metrics
)

// InitMetrics creates the Prometheus registry with Go runtime and process
// collectors plus the application metrics, and installs them as the
// process-wide default.
func InitMetrics() *metrics.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(reg)
	metrics.SetDefault(m)

	Registry = reg
	Metrics = m
	return m
}
