// Package source holds the upstream adapters that turn a registry lookup
// into a core.Outcome: the RDAP-style registry endpoint, the legacy WHOIS
// text protocol and the WhoisXML aggregator API.
package source

import (
	"time"

	"github.com/namelens/expirywatch/internal/core/engine"
)

// LegacyOptions configures the WHOIS tier. The tier is only built into
// binaries compiled without the nolegacywhois tag.
type LegacyOptions struct {
	Enabled bool
	Timeout time.Duration
	Limiter *engine.RateLimiter
}
