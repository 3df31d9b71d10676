package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/expirywatch/internal/config"
	errwrap "github.com/namelens/expirywatch/internal/errors"
	"github.com/namelens/expirywatch/internal/observability"
	"github.com/namelens/expirywatch/internal/server"
	"github.com/namelens/expirywatch/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve domain expiry status over HTTP",
	Long: `Start the HTTP server with graceful shutdown support.

Endpoints:
  /status[?force=true]   full snapshot as JSON
  /flat                  one line per domain
  /healthz, /health/*    probes
  /metrics               Prometheus metrics

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Force a snapshot refresh`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (overrides HOST)")
	serveCmd.Flags().IntP("port", "p", 0, "server port (overrides PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	overrides := map[string]any{}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		overrides["server.host"] = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		overrides["server.port"] = port
	}

	cfg, err := loadConfig(nil, overrides)
	if err != nil {
		return err
	}

	if cfg.Logging.Profile == "simple" {
		observability.ServerLogger = observability.CLILogger
	} else {
		observability.InitServerLogger(binaryName, cfg.Logging.Level, binaryName)
	}
	logger := observability.ServerLogger
	m := observability.InitMetrics()

	p := newPipeline(cfg, m, logger)
	refresh := p.refreshCache(cfg, m, logger)

	logger.Info("Initializing server",
		append(configSummary(cfg, tierNames(p.chain)),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))...)

	hm := handlers.NewHealthManager(versionInfo.Version)
	hm.RegisterChecker("config", configHealthChecker{cfg: cfg})
	hm.RegisterChecker("metrics", handlers.CheckerFunc(func(context.Context) error {
		if observability.Registry == nil {
			return errwrap.NewInternalError("metrics registry not initialized")
		}
		return nil
	}))

	srv := server.New(cfg.Server, server.Dependencies{
		Expiry:   handlers.NewExpiryHandler(refresh, cfg.Alert.Emoji),
		Health:   hm,
		Gatherer: observability.Registry,
	})

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Shutdown handlers run LIFO: the server stops before the logger flushes.
	signals.OnShutdown(func(ctx context.Context) error {
		if err := logger.Sync(); err != nil {
			logger.Debug("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: forcing snapshot refresh")
		go func() {
			snapshot := refresh.Snapshot(context.WithoutCancel(ctx), true)
			if snapshot == nil {
				return
			}
			logger.Info("Forced refresh complete",
				zap.Int("domains", len(snapshot.Records)),
				zap.Int("alerts", snapshot.AlertCount()))
		}()
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- srv.Start()
	}()
	go func() {
		if err := signals.Listen(cmd.Context()); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil && !errors.Is(err, context.Canceled) {
		return errwrap.WrapInternal(cmd.Context(), err, "server error")
	}
	return nil
}

// configHealthChecker is unhealthy when no domains are configured.
type configHealthChecker struct {
	cfg *config.Config
}

func (c configHealthChecker) CheckHealth(context.Context) error {
	if c.cfg == nil || len(c.cfg.Domains) == 0 {
		return errwrap.NewConfigInvalidError("no domains configured")
	}
	return nil
}
