package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/namelens/expirywatch/internal/core"
	"github.com/namelens/expirywatch/internal/core/engine"
)

const registryMaxBytes = 4 << 20

// Registry resolves expirations from an RDAP-style registry endpoint at
// {BaseURL}/{domain}.
type Registry struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
	Limiter *engine.RateLimiter
}

type registryDocument struct {
	Events []registryEvent `json:"events"`
}

type registryEvent struct {
	EventAction string `json:"eventAction"`
	EventDate   string `json:"eventDate"`
}

// Tier returns the registry tier.
func (r *Registry) Tier() core.Tier {
	return core.TierRegistry
}

// Resolve looks up domain and extracts its expiration event.
func (r *Registry) Resolve(ctx context.Context, domain string) core.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	base := strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	if base == "" {
		return core.TransportError(core.TierRegistry, errors.New("registry base url is not configured"))
	}

	if err := r.Limiter.Wait(ctx, engine.EndpointRegistry); err != nil {
		return core.TransportError(core.TierRegistry, fmt.Errorf("rate limit wait: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(r.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+url.PathEscape(domain), nil)
	if err != nil {
		return core.TransportError(core.TierRegistry, fmt.Errorf("build registry request: %w", err))
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")

	resp, err := r.client().Do(req)
	if err != nil {
		return core.TransportError(core.TierRegistry, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if !success(resp.StatusCode) {
		return core.TransportError(core.TierRegistry, statusError(resp))
	}

	var doc registryDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, registryMaxBytes)).Decode(&doc); err != nil {
		return core.TransportError(core.TierRegistry, fmt.Errorf("decode registry response: %w", err))
	}

	for _, event := range doc.Events {
		if !isExpirationAction(event.EventAction) {
			continue
		}
		if strings.TrimSpace(event.EventDate) == "" {
			return core.NoExpiration(core.TierRegistry)
		}
		expiresAt, err := ParseTimestamp(event.EventDate)
		if err != nil {
			return core.TransportError(core.TierRegistry, fmt.Errorf("parse expiration event: %w", err))
		}
		return core.Success(core.TierRegistry, expiresAt)
	}

	return core.NoExpiration(core.TierRegistry)
}

func (r *Registry) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func isExpirationAction(action string) bool {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "expiration", "expiry":
		return true
	default:
		return false
	}
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return DefaultTimeout
}
