package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/namelens/expirywatch/internal/core"
	"github.com/namelens/expirywatch/internal/metrics"
	"github.com/namelens/expirywatch/internal/observability"
)

func TestLoggers(t *testing.T) {
	observability.InitCLILogger("expirywatch-test", true)
	require.NotNil(t, observability.CLILogger)
	require.Same(t, observability.CLILogger, observability.Logger())

	observability.CLILogger.Debug("cli logger ready", zap.String("test", "value"))

	t.Setenv("APP_ENV", "test")
	observability.InitServerLogger("expirywatch-test", "DEBUG", "expirywatch")
	require.NotNil(t, observability.ServerLogger)
	require.Same(t, observability.ServerLogger, observability.Logger())

	observability.ServerLogger.Info("server logger ready", zap.String("component", "test"))
}

func TestInitMetrics(t *testing.T) {
	m := observability.InitMetrics()
	t.Cleanup(func() { metrics.SetDefault(nil) })

	require.NotNil(t, observability.Registry)
	require.Same(t, m, metrics.Default())

	m.ObserveTier(core.TierRegistry, "success")
	families, err := observability.Registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	require.Contains(t, names, "expirywatch_tier_attempts_total")
	require.Contains(t, names, "go_goroutines")
	require.Equal(t, 1.0, testutil.ToFloat64(m.TierAttempts.WithLabelValues("registry-protocol", "success")))
}
