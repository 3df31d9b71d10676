package cmd

import (
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/namelens/expirywatch/internal/config"
	"github.com/namelens/expirywatch/internal/core/cache"
	"github.com/namelens/expirywatch/internal/core/engine"
	"github.com/namelens/expirywatch/internal/core/source"
	"github.com/namelens/expirywatch/internal/metrics"
)

// pipeline is the resolution stack shared by serve and check.
type pipeline struct {
	chain     *engine.Chain
	assembler *engine.Assembler
	legacy    *source.Legacy
}

// newPipeline wires the adapters, chain and assembler from cfg. m may be
// nil.
func newPipeline(cfg *config.Config, m *metrics.Metrics, logger *logging.Logger) *pipeline {
	limiter := engine.NewRateLimiter()
	limiter.ApplyOverrides(cfg.RateLimits)
	limiter.ApplySafetyMargin(cfg.RateLimitMargin)

	client := source.NewHTTPClient(versionInfo.Version)

	registry := &source.Registry{
		BaseURL: cfg.RDAP.Base,
		Client:  client,
		Timeout: cfg.Lookup.Timeout,
		Limiter: limiter,
	}
	legacy := source.NewLegacy(source.LegacyOptions{
		Enabled: cfg.Whois.Enabled,
		Timeout: cfg.Whois.Timeout,
		Limiter: limiter,
	})
	aggregator := &source.Aggregator{
		APIKey:  cfg.Aggregator.APIKey,
		BaseURL: cfg.Aggregator.URL,
		Client:  client,
		Timeout: cfg.Lookup.Timeout,
		Limiter: limiter,
	}

	chain := &engine.Chain{
		Adapters:  []engine.Adapter{registry, legacy, aggregator},
		AlertDays: cfg.Alert.Days,
		Logger:    logger,
	}
	if m != nil {
		chain.Recorder = m
	}

	if cfg.Whois.Enabled && !legacy.Available() && logger != nil {
		logger.Warn("WHOIS fallback requested but not compiled into this binary")
	}

	return &pipeline{
		chain:  chain,
		legacy: legacy,
		assembler: &engine.Assembler{
			Resolver: chain,
			Workers:  cfg.Workers,
			Settings: cfg.Settings(legacy.Available()),
			Logger:   logger,
		},
	}
}

// refreshCache wraps the assembler in the process-wide snapshot cache.
func (p *pipeline) refreshCache(cfg *config.Config, m *metrics.Metrics, logger *logging.Logger) *cache.RefreshCache {
	refresh := &cache.RefreshCache{
		Builder:  p.assembler,
		Domains:  cfg.Domains,
		Interval: cfg.RefreshInterval(),
		Logger:   logger,
	}
	if m != nil {
		refresh.Observer = m
	}
	return refresh
}

// configSummary returns loggable configuration fields. The aggregator key
// is reported only as present or absent.
func configSummary(cfg *config.Config, tiers []string) []zap.Field {
	return []zap.Field{
		zap.Strings("domains", cfg.Domains),
		zap.String("rdap_base", cfg.RDAP.Base),
		zap.Int("alert_days", cfg.Alert.Days),
		zap.Int("refresh_minutes", cfg.Refresh.Minutes),
		zap.Bool("whois_fallback", cfg.Whois.Enabled),
		zap.Bool("aggregator_key_set", cfg.AggregatorEnabled()),
		zap.Strings("tiers", tiers),
		zap.Int("workers", cfg.Workers),
	}
}

func tierNames(chain *engine.Chain) []string {
	tiers := chain.Tiers()
	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, string(tier))
	}
	return names
}
