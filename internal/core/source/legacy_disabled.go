//go:build nolegacywhois

package source

import (
	"context"
	"errors"

	"github.com/namelens/expirywatch/internal/core"
)

// Legacy stands in for the WHOIS tier in binaries built without it. It is
// never available, so the chain treats the tier as absent.
type Legacy struct{}

// NewLegacy returns the absent WHOIS tier.
func NewLegacy(LegacyOptions) *Legacy {
	return &Legacy{}
}

// Tier returns the legacy tier.
func (l *Legacy) Tier() core.Tier {
	return core.TierLegacy
}

// Available always reports false.
func (l *Legacy) Available() bool {
	return false
}

// Resolve is never called by the chain; it reports the tier as missing.
func (l *Legacy) Resolve(context.Context, string) core.Outcome {
	return core.TransportError(core.TierLegacy, errors.New("whois support not compiled in"))
}
