package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, spec := range EnvSpecs() {
		t.Setenv(spec.Name, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DOMAINS", "Example.com, example.org,,example.com")
	t.Setenv("RDAP_BASE", "https://rdap.example/domain/")
	t.Setenv("ALERT_DAYS", "14")
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)

		cfg, err := Load(Options{})
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, []string{"example.com", "example.org"}, cfg.Domains)
		assert.Equal(t, "https://rdap.example/domain", cfg.RDAP.Base)
		assert.Equal(t, 14, cfg.Alert.Days)
		assert.Equal(t, "🔴", cfg.Alert.Emoji)
		assert.Equal(t, 360, cfg.Refresh.Minutes)
		assert.Equal(t, 6*time.Hour, cfg.RefreshInterval())
		assert.False(t, cfg.Whois.Enabled)
		assert.Equal(t, 20*time.Second, cfg.Whois.Timeout)
		assert.Equal(t, 20*time.Second, cfg.Lookup.Timeout)
		assert.Empty(t, cfg.Aggregator.APIKey)
		assert.False(t, cfg.AggregatorEnabled())
		assert.Equal(t, "https://www.whoisxmlapi.com/whoisserver/WhoisService", cfg.Aggregator.URL)
		assert.Equal(t, 4, cfg.Workers)

		// Verify server defaults
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Verify logging defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "structured", cfg.Logging.Profile)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("ALERT_EMOJI", "⚠️")
		t.Setenv("REFRESH_MINUTES", "15")
		t.Setenv("WHOIS_FALLBACK", "true")
		t.Setenv("WHOIS_TIMEOUT", "5s")
		t.Setenv("WHOISXML_API_KEY", " key ")
		t.Setenv("PORT", "9000")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("WORKERS", "8")

		cfg, err := Load(Options{})
		require.NoError(t, err)

		assert.Equal(t, "⚠️", cfg.Alert.Emoji)
		assert.Equal(t, 15, cfg.Refresh.Minutes)
		assert.True(t, cfg.Whois.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Whois.Timeout)
		assert.Equal(t, "key", cfg.Aggregator.APIKey)
		assert.True(t, cfg.AggregatorEnabled())
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 8, cfg.Workers)

		settings := cfg.Settings(true)
		assert.True(t, settings.LegacyEnabled)
		assert.True(t, settings.AggregatorEnabled)
		assert.Equal(t, 15, settings.RefreshMinutes)
		assert.False(t, cfg.Settings(false).LegacyEnabled)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ALERT_DAYS", "7")

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := []byte(`domains:
  - alpha.dev
  - Beta.io
rdap:
  base: https://rdap.file/domain
rate_limits:
  whois: 10
`)
		require.NoError(t, os.WriteFile(path, content, 0o600))

		cfg, err := Load(Options{ConfigFile: path})
		require.NoError(t, err)

		assert.Equal(t, []string{"alpha.dev", "beta.io"}, cfg.Domains)
		assert.Equal(t, "https://rdap.file/domain", cfg.RDAP.Base)
		assert.Equal(t, 7, cfg.Alert.Days)
		assert.Equal(t, map[string]int{"whois": 10}, cfg.RateLimits)
	})

	t.Run("ConfigPrecedence", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("PORT", "4000")

		cfg, err := Load(Options{
			Domains:   []string{"cli.example"},
			Overrides: map[string]any{"server.port": 5000},
		})
		require.NoError(t, err)

		assert.Equal(t, 5000, cfg.Server.Port)
		assert.Equal(t, []string{"cli.example"}, cfg.Domains)
	})

	t.Run("ZeroAlertDaysIsValid", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("ALERT_DAYS", "0")

		cfg, err := Load(Options{})
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Alert.Days)
	})
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.ElementsMatch(t, []string{"ALERT_DAYS is required", "DOMAINS is required", "RDAP_BASE is required"}, validation.Problems)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("ALERT_DAYS", "soon")

	_, err := Load(Options{})
	require.Error(t, err)
	require.True(t, IsValidationError(err))
}

func TestValidateRanges(t *testing.T) {
	cfg := &Config{
		Domains:    []string{"example.com"},
		RDAP:       RDAPConfig{Base: "https://rdap.example"},
		Refresh:    RefreshConfig{Minutes: 0},
		Workers:    0,
		Whois:      WhoisConfig{Timeout: time.Second},
		Lookup:     LookupConfig{Timeout: time.Second},
		Server:     ServerConfig{Port: 70000},
		Logging:    LoggingConfig{Profile: "verbose"},
		RateLimits: map[string]int{"registry": -1},
	}

	err := Validate(cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_MINUTES must be positive")
	assert.Contains(t, err.Error(), "WORKERS must be positive")
	assert.Contains(t, err.Error(), "PORT 70000 is out of range")
	assert.Contains(t, err.Error(), "rate_limits.registry must be positive")
	assert.Contains(t, err.Error(), `LOG_PROFILE "verbose" must be simple or structured`)
	assert.Contains(t, err.Error(), "RATE_LIMIT_MARGIN must be within (0, 1]")
}

func TestNormalizeDomains(t *testing.T) {
	got := NormalizeDomains([]string{" B.com ", "a.com,b.com", "", "c.org"})
	assert.Equal(t, []string{"b.com", "a.com", "c.org"}, got)
}

func TestGetConfig(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
	assert.Equal(t, cfg.Domains, retrieved.Domains)
}
