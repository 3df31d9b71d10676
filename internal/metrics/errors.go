package metrics

import "strconv"

// RecordError records an error with code and status
func RecordError(errorCode string, httpStatus int) {
	if m := Default(); m != nil {
		m.Errors.WithLabelValues(errorCode, strconv.Itoa(httpStatus)).Inc()
	}
}

// RecordPanic records a panic recovery
func RecordPanic() {
	if m := Default(); m != nil {
		m.Panics.Inc()
	}
}

// RecordErrorByEndpoint records an error by endpoint
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	if m := Default(); m != nil {
		m.ErrorsByRoute.WithLabelValues(endpoint, errorCode).Inc()
	}
}
