package source

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 20 * time.Second

// UserAgent returns the User-Agent sent to every HTTP tier.
func UserAgent(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("expirywatch/%s (+rdap client)", version)
}

// NewHTTPClient returns the pooled client shared by the HTTP tiers. Per-call
// deadlines come from the request context, not the client.
func NewHTTPClient(version string) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Transport: &userAgentTransport{base: transport, agent: UserAgent(version)},
	}
}

type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(clone)
}

// statusError describes a non-success HTTP status, including any
// Retry-After hint the upstream sent.
func statusError(resp *http.Response) error {
	if resp == nil {
		return fmt.Errorf("empty response")
	}
	if wait, ok := retryAfter(resp); ok {
		return fmt.Errorf("status %d (retry after %s)", resp.StatusCode, wait.Round(time.Second))
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil || resp.Header == nil {
		return 0, false
	}

	retry := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if retry == "" {
		return 0, false
	}

	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds, true
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed), true
	}

	return 0, false
}

func success(status int) bool {
	return status >= 200 && status < 300
}
