//go:build !nolegacywhois

package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/namelens/expirywatch/internal/core"
	"github.com/namelens/expirywatch/internal/core/engine"
)

// WhoisClient performs a raw WHOIS query. *whois.Client satisfies it.
type WhoisClient interface {
	Whois(domain string, servers ...string) (string, error)
}

// Legacy resolves expirations from WHOIS text output.
type Legacy struct {
	Enabled bool
	Client  WhoisClient
	Parse   func(text string) (whoisparser.WhoisInfo, error)
	Timeout time.Duration
	Limiter *engine.RateLimiter
}

// NewLegacy builds the WHOIS tier backed by likexian/whois.
func NewLegacy(opts LegacyOptions) *Legacy {
	timeout := timeoutOrDefault(opts.Timeout)
	return &Legacy{
		Enabled: opts.Enabled,
		Client:  whois.NewClient().SetTimeout(timeout),
		Timeout: timeout,
		Limiter: opts.Limiter,
	}
}

// Tier returns the legacy tier.
func (l *Legacy) Tier() core.Tier {
	return core.TierLegacy
}

// Available reports whether the tier is enabled.
func (l *Legacy) Available() bool {
	return l != nil && l.Enabled && l.Client != nil
}

// Resolve queries WHOIS for domain and extracts the expiration date.
func (l *Legacy) Resolve(ctx context.Context, domain string) core.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil || l.Client == nil {
		return core.TransportError(core.TierLegacy, errors.New("whois client is not configured"))
	}

	if err := l.Limiter.Wait(ctx, engine.EndpointWhois); err != nil {
		return core.TransportError(core.TierLegacy, fmt.Errorf("rate limit wait: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(l.Timeout))
	defer cancel()

	raw, err := l.query(ctx, domain)
	if err != nil {
		return core.TransportError(core.TierLegacy, err)
	}

	info, err := l.parse(raw)
	if err != nil {
		return core.TransportError(core.TierLegacy, fmt.Errorf("parse whois response: %w", err))
	}
	if info.Domain == nil {
		return core.NoExpiration(core.TierLegacy)
	}

	value := strings.TrimSpace(info.Domain.ExpirationDate)
	if value == "" {
		return core.NoExpiration(core.TierLegacy)
	}

	expiresAt, err := parseLegacyDate(value)
	if err != nil {
		return core.TransportError(core.TierLegacy, err)
	}
	return core.Success(core.TierLegacy, expiresAt)
}

// query runs the blocking WHOIS call so that the deadline in ctx applies
// even if the client ignores it.
func (l *Legacy) query(ctx context.Context, domain string) (string, error) {
	type result struct {
		raw string
		err error
	}

	done := make(chan result, 1)
	go func() {
		raw, err := l.Client.Whois(domain)
		done <- result{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("whois query: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("whois query: %w", res.err)
		}
		return res.raw, nil
	}
}

func (l *Legacy) parse(raw string) (whoisparser.WhoisInfo, error) {
	if l.Parse != nil {
		return l.Parse(raw)
	}
	return whoisparser.Parse(raw)
}

// parseLegacyDate accepts a single value or a list of values. For a list only
// the first non-empty element is parsed.
func parseLegacyDate(value string) (time.Time, error) {
	if parsed, err := ParseTimestamp(value); err == nil {
		return parsed, nil
	}

	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '\n' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		return ParseTimestamp(part)
	}

	return time.Time{}, fmt.Errorf("unrecognised expiration %q", value)
}
