package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Endpoint keys used by the source adapters.
const (
	EndpointRegistry   = "registry"
	EndpointWhois      = "whois"
	EndpointAggregator = "aggregator"
)

// RateLimiter enforces per-endpoint request budgets. A nil RateLimiter
// allows everything.
type RateLimiter struct {
	Limits map[string]RateLimit
	Margin float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// RateLimit represents a rate limit window.
type RateLimit struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// DefaultLimits provides conservative defaults per endpoint.
var DefaultLimits = map[string]RateLimit{
	EndpointRegistry:   {RequestsPerWindow: 60, WindowDuration: time.Minute},
	EndpointWhois:      {RequestsPerWindow: 30, WindowDuration: time.Minute},
	EndpointAggregator: {RequestsPerWindow: 30, WindowDuration: time.Minute},
}

// NewRateLimiter returns a limiter seeded with DefaultLimits.
func NewRateLimiter() *RateLimiter {
	limits := make(map[string]RateLimit, len(DefaultLimits))
	for key, limit := range DefaultLimits {
		limits[key] = limit
	}
	return &RateLimiter{Limits: limits}
}

// Wait blocks until a request to endpoint is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	if r == nil {
		return nil
	}
	return r.limiter(endpoint).Wait(ctx)
}

// ApplyOverrides merges per-endpoint request overrides (per minute).
func (r *RateLimiter) ApplyOverrides(overrides map[string]int) {
	if r == nil || len(overrides) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Limits == nil {
		r.Limits = make(map[string]RateLimit, len(DefaultLimits))
		for key, limit := range DefaultLimits {
			r.Limits[key] = limit
		}
	}

	for endpoint, value := range overrides {
		endpoint = strings.ToLower(strings.TrimSpace(endpoint))
		if endpoint == "" || value <= 0 {
			continue
		}
		r.Limits[endpoint] = RateLimit{
			RequestsPerWindow: value,
			WindowDuration:    time.Minute,
		}
		delete(r.limiters, endpoint)
	}
}

// ApplySafetyMargin adjusts the effective request limits by a ratio (0-1].
func (r *RateLimiter) ApplySafetyMargin(margin float64) {
	if r == nil {
		return
	}
	if margin <= 0 || margin > 1 {
		return
	}
	r.mu.Lock()
	r.Margin = margin
	r.limiters = nil
	r.mu.Unlock()
}

func (r *RateLimiter) limiter(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limiters == nil {
		r.limiters = make(map[string]*rate.Limiter)
	}
	if limiter, ok := r.limiters[endpoint]; ok {
		return limiter
	}

	limit := r.getLimit(endpoint)
	every := limit.WindowDuration / time.Duration(limit.RequestsPerWindow)
	limiter := rate.NewLimiter(rate.Every(every), burstFor(limit))
	r.limiters[endpoint] = limiter
	return limiter
}

func (r *RateLimiter) getLimit(endpoint string) RateLimit {
	limits := r.Limits
	if limits == nil {
		limits = DefaultLimits
	}

	if limit, ok := limits[endpoint]; ok && limit.RequestsPerWindow > 0 && limit.WindowDuration > 0 {
		return r.applyMargin(limit)
	}

	if strings.HasPrefix(endpoint, "whois.") {
		if limit, ok := limits[EndpointWhois]; ok {
			return r.applyMargin(limit)
		}
	}

	return r.applyMargin(RateLimit{RequestsPerWindow: 30, WindowDuration: time.Minute})
}

func (r *RateLimiter) applyMargin(limit RateLimit) RateLimit {
	if r.Margin <= 0 || r.Margin > 1 {
		return limit
	}
	adjusted := int(math.Floor(float64(limit.RequestsPerWindow) * r.Margin))
	if adjusted < 1 {
		adjusted = 1
	}
	limit.RequestsPerWindow = adjusted
	return limit
}

// burstFor allows a short burst of a tenth of the window budget.
func burstFor(limit RateLimit) int {
	burst := limit.RequestsPerWindow / 10
	if burst < 1 {
		burst = 1
	}
	return burst
}
