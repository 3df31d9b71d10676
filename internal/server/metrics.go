package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/namelens/expirywatch/internal/errors"
	"github.com/namelens/expirywatch/internal/observability"
)

// metricsHandler serves the Prometheus registry on the main listener.
func (s *Server) metricsHandler() http.HandlerFunc {
	gatherer := s.deps.Gatherer
	if gatherer == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			HandleError(w, r, apperrors.NewServiceUnavailableError("Metrics registry not initialized"))
		}
	}

	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:      promErrorLog{},
		ErrorHandling: promhttp.ContinueOnError,
	})
	return handler.ServeHTTP
}

// promErrorLog forwards promhttp gathering errors to the server logger.
type promErrorLog struct{}

func (promErrorLog) Println(v ...interface{}) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Warn("metrics gathering error", zap.Any("detail", v))
	}
}
