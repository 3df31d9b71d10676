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

// DefaultAggregatorURL is the WhoisXML API lookup endpoint.
const DefaultAggregatorURL = "https://www.whoisxmlapi.com/whoisserver/WhoisService"

const aggregatorMaxBytes = 4 << 20

// Aggregator resolves expirations through the WhoisXML API. It only runs
// when an API key is configured.
type Aggregator struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
	Limiter *engine.RateLimiter
}

type aggregatorResponse struct {
	WhoisRecord  *aggregatorRecord `json:"WhoisRecord"`
	ErrorMessage *aggregatorError  `json:"ErrorMessage"`
}

type aggregatorRecord struct {
	DataError    string `json:"dataError"`
	ExpiresDate  string `json:"expiresDate"`
	RegistryData *struct {
		ExpiresDate string `json:"expiresDate"`
	} `json:"registryData"`
}

type aggregatorError struct {
	ErrorCode string `json:"errorCode"`
	Msg       string `json:"msg"`
}

// Tier returns the aggregator tier.
func (a *Aggregator) Tier() core.Tier {
	return core.TierAggregator
}

// Available reports whether a credential is configured.
func (a *Aggregator) Available() bool {
	return a != nil && strings.TrimSpace(a.APIKey) != ""
}

// Resolve queries the aggregator for domain.
func (a *Aggregator) Resolve(ctx context.Context, domain string) core.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if !a.Available() {
		return core.TransportError(core.TierAggregator, errors.New("aggregator api key is not configured"))
	}

	endpoint, err := a.requestURL(domain)
	if err != nil {
		return core.TransportError(core.TierAggregator, err)
	}

	if err := a.Limiter.Wait(ctx, engine.EndpointAggregator); err != nil {
		return core.TransportError(core.TierAggregator, fmt.Errorf("rate limit wait: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(a.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.TransportError(core.TierAggregator, fmt.Errorf("build aggregator request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return core.TransportError(core.TierAggregator, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if !success(resp.StatusCode) {
		return core.TransportError(core.TierAggregator, statusError(resp))
	}

	var payload aggregatorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, aggregatorMaxBytes)).Decode(&payload); err != nil {
		return core.TransportError(core.TierAggregator, fmt.Errorf("decode aggregator response: %w", err))
	}

	if payload.ErrorMessage != nil {
		message := strings.TrimSpace(payload.ErrorMessage.Msg)
		if code := strings.TrimSpace(payload.ErrorMessage.ErrorCode); code != "" {
			message = fmt.Sprintf("%s %s", code, message)
		}
		return core.Fail(core.TierAggregator, core.FailureTransport, strings.TrimSpace(message))
	}

	return classifyAggregatorRecord(payload.WhoisRecord)
}

func classifyAggregatorRecord(record *aggregatorRecord) core.Outcome {
	if record == nil {
		return core.NoExpiration(core.TierAggregator)
	}

	if dataError := strings.TrimSpace(record.DataError); dataError != "" {
		return core.Fail(core.TierAggregator, core.FailureUpstreamData, dataError)
	}

	value := strings.TrimSpace(record.ExpiresDate)
	if value == "" && record.RegistryData != nil {
		value = strings.TrimSpace(record.RegistryData.ExpiresDate)
	}
	if value == "" {
		return core.NoExpiration(core.TierAggregator)
	}

	expiresAt, err := ParseTimestamp(value)
	if err != nil {
		return core.TransportError(core.TierAggregator, err)
	}
	return core.Success(core.TierAggregator, expiresAt)
}

func (a *Aggregator) requestURL(domain string) (string, error) {
	base := strings.TrimSpace(a.BaseURL)
	if base == "" {
		base = DefaultAggregatorURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid aggregator url: %w", err)
	}

	query := parsed.Query()
	query.Set("apiKey", a.APIKey)
	query.Set("domainName", domain)
	query.Set("outputFormat", "JSON")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
