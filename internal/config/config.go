package config

import (
	"time"

	"github.com/namelens/expirywatch/internal/core"
)

// Config represents the complete application configuration. Values come
// from defaults, an optional YAML file, environment variables and runtime
// overrides, in increasing order of precedence.
type Config struct {
	Domains    []string         `mapstructure:"domains"`
	RDAP       RDAPConfig       `mapstructure:"rdap"`
	Alert      AlertConfig      `mapstructure:"alert"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
	Whois      WhoisConfig      `mapstructure:"whois"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Lookup     LookupConfig     `mapstructure:"lookup"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Workers    int              `mapstructure:"workers"`

	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// RDAPConfig locates the registry lookup endpoint.
type RDAPConfig struct {
	// Base is joined with the domain as {Base}/{domain}.
	Base string `mapstructure:"base"`
}

// AlertConfig controls when a record alerts and how it is marked.
type AlertConfig struct {
	Days  int    `mapstructure:"days"`
	Emoji string `mapstructure:"emoji"`
}

// RefreshConfig controls snapshot staleness.
type RefreshConfig struct {
	Minutes int `mapstructure:"minutes"`
}

// WhoisConfig enables the legacy WHOIS tier.
type WhoisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AggregatorConfig configures the WhoisXML API tier. The tier is off when
// APIKey is empty.
type AggregatorConfig struct {
	APIKey string `mapstructure:"api_key"`
	URL    string `mapstructure:"url"`
}

// LookupConfig bounds each upstream HTTP call.
type LookupConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: simple, structured
	Profile string `mapstructure:"profile"`
}

// AggregatorEnabled reports whether the aggregator tier has a credential.
func (c *Config) AggregatorEnabled() bool {
	return c != nil && c.Aggregator.APIKey != ""
}

// RefreshInterval returns the snapshot refresh interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.Minutes) * time.Minute
}

// Settings returns the values recorded on every snapshot.
func (c *Config) Settings(legacyAvailable bool) core.Settings {
	return core.Settings{
		AlertDays:         c.Alert.Days,
		RefreshMinutes:    c.Refresh.Minutes,
		RegistryBase:      c.RDAP.Base,
		LegacyEnabled:     c.Whois.Enabled && legacyAvailable,
		AggregatorEnabled: c.AggregatorEnabled(),
	}
}
