//go:build !nolegacywhois

package source

import (
	"context"
	"errors"
	"testing"
	"time"

	whoisparser "github.com/likexian/whois-parser"
	"github.com/stretchr/testify/require"

	"github.com/namelens/expirywatch/internal/core"
)

const verisignResponse = `   Domain Name: EXAMPLE.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.iana.org
   Registrar URL: http://res-dom.iana.org
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 1995-08-14T04:00:00Z
   Registry Expiry Date: 2030-08-13T04:00:00Z
   Registrar: RESERVED-Internet Assigned Numbers Authority
   Registrar IANA ID: 376
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Name Server: A.IANA-SERVERS.NET
   Name Server: B.IANA-SERVERS.NET
   DNSSEC: signedDelegation
>>> Last update of whois database: 2025-01-01T00:00:00Z <<<
`

type stubWhois struct {
	body  string
	err   error
	block chan struct{}
	calls int
}

func (s *stubWhois) Whois(domain string, servers ...string) (string, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	return s.body, s.err
}

func TestLegacyResolvesWithParser(t *testing.T) {
	client := &stubWhois{body: verisignResponse}
	legacy := &Legacy{Enabled: true, Client: client}

	outcome := legacy.Resolve(context.Background(), "example.com")

	require.True(t, outcome.OK(), "failure: %v", outcome.Failure)
	require.Equal(t, core.TierLegacy, outcome.Tier)
	require.True(t, time.Date(2030, 8, 13, 4, 0, 0, 0, time.UTC).Equal(outcome.ExpiresAt))
	require.Equal(t, 1, client.calls)
}

func TestLegacyTakesFirstOfList(t *testing.T) {
	legacy := &Legacy{
		Enabled: true,
		Client:  &stubWhois{body: "ignored"},
		Parse: func(string) (whoisparser.WhoisInfo, error) {
			return whoisparser.WhoisInfo{Domain: &whoisparser.Domain{ExpirationDate: "2031-02-03 10:00:00, 2031-02-04 10:00:00"}}, nil
		},
	}

	outcome := legacy.Resolve(context.Background(), "example.net")

	require.True(t, outcome.OK())
	require.True(t, time.Date(2031, 2, 3, 10, 0, 0, 0, time.UTC).Equal(outcome.ExpiresAt))
}

func TestLegacyFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *stubWhois
		parse  func(string) (whoisparser.WhoisInfo, error)
		kind   core.FailureKind
	}{
		{
			name:   "lookup error",
			client: &stubWhois{err: errors.New("connection refused")},
			kind:   core.FailureTransport,
		},
		{
			name:   "parse error",
			client: &stubWhois{body: "No match for \"NOPE.COM\"."},
			parse: func(string) (whoisparser.WhoisInfo, error) {
				return whoisparser.WhoisInfo{}, whoisparser.ErrNotFoundDomain
			},
			kind: core.FailureTransport,
		},
		{
			name:   "no domain section",
			client: &stubWhois{body: "x"},
			parse: func(string) (whoisparser.WhoisInfo, error) {
				return whoisparser.WhoisInfo{}, nil
			},
			kind: core.FailureNoExpiration,
		},
		{
			name:   "no expiration field",
			client: &stubWhois{body: "x"},
			parse: func(string) (whoisparser.WhoisInfo, error) {
				return whoisparser.WhoisInfo{Domain: &whoisparser.Domain{Domain: "example.com"}}, nil
			},
			kind: core.FailureNoExpiration,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			legacy := &Legacy{Enabled: true, Client: tc.client, Parse: tc.parse}
			outcome := legacy.Resolve(context.Background(), "example.com")

			require.NotNil(t, outcome.Failure)
			require.Equal(t, tc.kind, outcome.Failure.Kind)
		})
	}
}

func TestLegacyTimeout(t *testing.T) {
	client := &stubWhois{block: make(chan struct{})}
	defer close(client.block)

	legacy := &Legacy{Enabled: true, Client: client, Timeout: 20 * time.Millisecond}
	outcome := legacy.Resolve(context.Background(), "example.com")

	require.NotNil(t, outcome.Failure)
	require.Equal(t, core.FailureTransport, outcome.Failure.Kind)
}

func TestLegacyAvailability(t *testing.T) {
	require.False(t, (*Legacy)(nil).Available())
	require.False(t, NewLegacy(LegacyOptions{}).Available())
	require.True(t, NewLegacy(LegacyOptions{Enabled: true}).Available())
}
