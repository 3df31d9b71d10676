package metrics

import (
	"strconv"
	"time"

	"github.com/namelens/expirywatch/internal/core"
)

// ObserveTier counts one tier attempt.
func (m *Metrics) ObserveTier(tier core.Tier, result string) {
	if m == nil {
		return
	}
	m.TierAttempts.WithLabelValues(string(tier), result).Inc()
}

// ObserveRefresh records a completed refresh and replaces the per-domain
// gauges with the snapshot's values. Unresolved domains have no days-left
// sample.
func (m *Metrics) ObserveRefresh(snapshot *core.Snapshot, duration time.Duration) {
	if m == nil {
		return
	}

	m.Refreshes.Inc()
	m.RefreshDuration.Observe(duration.Seconds())

	if snapshot == nil {
		return
	}

	m.DaysLeft.Reset()
	m.Alert.Reset()
	for _, record := range snapshot.Records {
		alert := 0.0
		if record.Alert {
			alert = 1
		}
		m.Alert.WithLabelValues(record.Domain).Set(alert)
		if record.DaysLeft != nil {
			m.DaysLeft.WithLabelValues(record.Domain).Set(float64(*record.DaysLeft))
		}
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
