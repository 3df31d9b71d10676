// Package config loads and validates expirywatch configuration.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// Options controls a single Load.
type Options struct {
	// ConfigFile is an optional YAML file layered over the defaults.
	ConfigFile string

	// Domains, when non-empty, replaces the configured domain list.
	Domains []string

	// Overrides are applied last, keyed by dotted config path.
	Overrides map[string]any
}

// EnvVarSpec maps an environment variable to a config key.
type EnvVarSpec struct {
	Name string
	Key  string
}

// EnvSpecs lists the environment variables read by Load. Names carry no
// prefix so existing deployments keep working.
func EnvSpecs() []EnvVarSpec {
	return []EnvVarSpec{
		{Name: "DOMAINS", Key: "domains"},
		{Name: "RDAP_BASE", Key: "rdap.base"},
		{Name: "ALERT_DAYS", Key: "alert.days"},
		{Name: "ALERT_EMOJI", Key: "alert.emoji"},
		{Name: "REFRESH_MINUTES", Key: "refresh.minutes"},
		{Name: "WHOIS_FALLBACK", Key: "whois.enabled"},
		{Name: "WHOIS_TIMEOUT", Key: "whois.timeout"},
		{Name: "WHOISXML_API_KEY", Key: "aggregator.api_key"},
		{Name: "WHOISXML_URL", Key: "aggregator.url"},
		{Name: "LOOKUP_TIMEOUT", Key: "lookup.timeout"},
		{Name: "WORKERS", Key: "workers"},
		{Name: "RATE_LIMIT_MARGIN", Key: "rate_limit_margin"},
		{Name: "HOST", Key: "server.host"},
		{Name: "PORT", Key: "server.port"},
		{Name: "SHUTDOWN_TIMEOUT", Key: "server.shutdown_timeout"},
		{Name: "LOG_LEVEL", Key: "logging.level"},
		{Name: "LOG_PROFILE", Key: "logging.profile"},
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("alert.emoji", "🔴")
	v.SetDefault("refresh.minutes", 360)

	v.SetDefault("whois.enabled", false)
	v.SetDefault("whois.timeout", "20s")

	v.SetDefault("aggregator.api_key", "")
	v.SetDefault("aggregator.url", "https://www.whoisxmlapi.com/whoisserver/WhoisService")

	v.SetDefault("lookup.timeout", "20s")
	v.SetDefault("workers", 4)

	// Rate limit overrides (optional)
	v.SetDefault("rate_limits", map[string]int{})
	v.SetDefault("rate_limit_margin", 1.0)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")
}

// Load builds the configuration and validates it. A validation failure is
// returned as *ValidationError.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	for _, spec := range EnvSpecs() {
		if err := v.BindEnv(spec.Key, spec.Name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", spec.Name, err)
		}
	}

	if path := strings.TrimSpace(opts.ConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	keys := make([]string, 0, len(opts.Overrides))
	for key := range opts.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		v.Set(key, opts.Overrides[key])
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("failed to decode config: %v", err)}}
	}

	if len(opts.Domains) > 0 {
		cfg.Domains = opts.Domains
	}

	Normalize(cfg)
	if err := Validate(cfg, v.IsSet("alert.days")); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Normalize trims and canonicalises user-supplied values in place.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Domains = NormalizeDomains(cfg.Domains)
	cfg.RDAP.Base = strings.TrimRight(strings.TrimSpace(cfg.RDAP.Base), "/")
	cfg.Aggregator.APIKey = strings.TrimSpace(cfg.Aggregator.APIKey)
	cfg.Aggregator.URL = strings.TrimSpace(cfg.Aggregator.URL)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Profile = strings.ToLower(strings.TrimSpace(cfg.Logging.Profile))
}

// NormalizeDomains lower-cases and trims domains, dropping blanks and
// duplicates while keeping first-seen order. Entries may themselves be
// comma-separated.
func NormalizeDomains(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, entry := range domains {
		for _, domain := range strings.Split(entry, ",") {
			domain = strings.ToLower(strings.TrimSpace(domain))
			if domain == "" {
				continue
			}
			if _, ok := seen[domain]; ok {
				continue
			}
			seen[domain] = struct{}{}
			out = append(out, domain)
		}
	}
	return out
}

// ValidationError lists every configuration problem found.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// IsValidationError reports whether err is a configuration problem.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// Validate checks required values and ranges. alertDaysSet reports whether
// the alert threshold was supplied at all, since zero is a valid threshold.
func Validate(cfg *Config, alertDaysSet bool) error {
	if cfg == nil {
		return &ValidationError{Problems: []string{"configuration is missing"}}
	}

	var problems []string
	if len(cfg.Domains) == 0 {
		problems = append(problems, "DOMAINS is required")
	}
	if cfg.RDAP.Base == "" {
		problems = append(problems, "RDAP_BASE is required")
	}
	if !alertDaysSet {
		problems = append(problems, "ALERT_DAYS is required")
	}
	if cfg.Refresh.Minutes <= 0 {
		problems = append(problems, "REFRESH_MINUTES must be positive")
	}
	if cfg.Workers <= 0 {
		problems = append(problems, "WORKERS must be positive")
	}
	if cfg.Whois.Timeout <= 0 {
		problems = append(problems, "WHOIS_TIMEOUT must be positive")
	}
	if cfg.Lookup.Timeout <= 0 {
		problems = append(problems, "LOOKUP_TIMEOUT must be positive")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", cfg.Server.Port))
	}
	if cfg.RateLimitMargin <= 0 || cfg.RateLimitMargin > 1 {
		problems = append(problems, "RATE_LIMIT_MARGIN must be within (0, 1]")
	}
	if cfg.Logging.Profile != "simple" && cfg.Logging.Profile != "structured" {
		problems = append(problems, fmt.Sprintf("LOG_PROFILE %q must be simple or structured", cfg.Logging.Profile))
	}
	for endpoint, limit := range cfg.RateLimits {
		if limit <= 0 {
			problems = append(problems, fmt.Sprintf("rate_limits.%s must be positive", endpoint))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &ValidationError{Problems: problems}
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
