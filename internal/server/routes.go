package server

import (
	"github.com/namelens/expirywatch/internal/server/handlers"
	servermw "github.com/namelens/expirywatch/internal/server/middleware"
)

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", handlers.Healthz)

	health := s.deps.Health
	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/health/live", health.LivenessHandler)
	s.router.Get("/health/ready", health.ReadinessHandler)
	s.router.Get("/health/startup", health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)

	// Snapshot endpoints always read through the refresh cache. A cold or
	// stale read can outlast WriteTimeout, so they run without one.
	expiry := s.deps.Expiry
	snapshots := s.router.With(servermw.NoWriteDeadline)
	snapshots.Get("/status", expiry.Status)
	snapshots.Get("/flat", expiry.Flat)

	s.router.Get("/metrics", s.metricsHandler())
}
