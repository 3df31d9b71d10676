package engine

import (
	"context"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/namelens/expirywatch/internal/core"
)

// Adapter queries one upstream for a domain's expiration date.
type Adapter interface {
	Tier() core.Tier
	Resolve(ctx context.Context, domain string) core.Outcome
}

// Availability is implemented by adapters that can be compiled or configured
// out. An unavailable adapter is skipped without recording a failure.
type Availability interface {
	Available() bool
}

// Recorder receives per-tier attempt results.
type Recorder interface {
	ObserveTier(tier core.Tier, result string)
}

// Chain resolves a domain by trying adapters in priority order until one
// produces an expiration date.
type Chain struct {
	Adapters  []Adapter
	AlertDays int
	Clock     func() time.Time
	Logger    *logging.Logger
	Recorder  Recorder
}

// ResolveDomain runs the fallback chain for domain. Any tier failure falls
// through to the next tier; when every tier fails the record carries the
// reason from the last tier attempted.
func (c *Chain) ResolveDomain(ctx context.Context, domain string) core.Record {
	if ctx == nil {
		ctx = context.Background()
	}
	domain = strings.TrimSpace(domain)

	var last *core.Outcome
	for _, adapter := range c.Adapters {
		if adapter == nil || !available(adapter) {
			continue
		}

		outcome := adapter.Resolve(ctx, domain)
		if outcome.Tier == "" {
			outcome.Tier = adapter.Tier()
		}

		if outcome.OK() {
			c.observe(outcome.Tier, "success")
			return core.NewRecord(domain, outcome, c.now(), c.AlertDays)
		}

		if outcome.Failure == nil {
			outcome = core.NoExpiration(outcome.Tier)
		}
		c.observe(outcome.Tier, string(outcome.Failure.Kind))
		c.debug("tier failed",
			zap.String("domain", domain),
			zap.String("tier", string(outcome.Tier)),
			zap.String("reason", outcome.Failure.Reason()))
		last = &outcome
	}

	if last == nil {
		failed := core.Fail("", core.FailureTransport, "no source tiers enabled")
		last = &failed
	}

	record := core.NewRecord(domain, *last, c.now(), c.AlertDays)
	c.warn("domain unresolved",
		zap.String("domain", domain),
		zap.String("last_tier", string(last.Tier)),
		zap.String("reason", record.ErrorReason))
	return record
}

// Tiers lists the tiers that would currently be attempted, in order.
func (c *Chain) Tiers() []core.Tier {
	tiers := make([]core.Tier, 0, len(c.Adapters))
	for _, adapter := range c.Adapters {
		if adapter == nil || !available(adapter) {
			continue
		}
		tiers = append(tiers, adapter.Tier())
	}
	return tiers
}

func available(adapter Adapter) bool {
	if gate, ok := adapter.(Availability); ok {
		return gate.Available()
	}
	return true
}

func (c *Chain) observe(tier core.Tier, result string) {
	if c.Recorder != nil {
		c.Recorder.ObserveTier(tier, result)
	}
}

func (c *Chain) debug(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}

func (c *Chain) warn(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Warn(msg, fields...)
	}
}

func (c *Chain) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
