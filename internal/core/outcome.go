package core

import (
	"strings"
	"time"
)

// FailureKind classifies why a tier could not produce an expiration date.
type FailureKind string

const (
	// FailureTransport covers network errors, non-success statuses and
	// unparsable bodies.
	FailureTransport FailureKind = "transport-error"
	// FailureNoExpiration means the tier answered but carried no expiration.
	FailureNoExpiration FailureKind = "no-expiration-in-source"
	// FailureUpstreamData is an explicit data error reported by the upstream.
	FailureUpstreamData FailureKind = "upstream-data-error"
)

// Failure is a classified tier failure.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Reason renders the failure as a record error reason.
func (f *Failure) Reason() string {
	if f == nil {
		return ""
	}
	message := strings.TrimSpace(f.Message)
	switch f.Kind {
	case FailureNoExpiration:
		return string(FailureNoExpiration)
	case FailureUpstreamData:
		if message == "" {
			return string(FailureUpstreamData)
		}
		return message
	default:
		if message == "" {
			return string(FailureTransport)
		}
		return string(FailureTransport) + ": " + message
	}
}

func (f *Failure) Error() string {
	return f.Reason()
}

// Outcome is the result of asking one tier about one domain: either an
// expiration timestamp or a Failure, never both.
type Outcome struct {
	Tier      Tier
	ExpiresAt time.Time
	Failure   *Failure
}

// Success builds a successful outcome.
func Success(tier Tier, expiresAt time.Time) Outcome {
	return Outcome{Tier: tier, ExpiresAt: expiresAt}
}

// Fail builds a failed outcome.
func Fail(tier Tier, kind FailureKind, message string) Outcome {
	return Outcome{Tier: tier, Failure: &Failure{Kind: kind, Message: message}}
}

// TransportError is shorthand for a transport failure wrapping err.
func TransportError(tier Tier, err error) Outcome {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return Fail(tier, FailureTransport, message)
}

// NoExpiration is shorthand for a no-expiration-in-source failure.
func NoExpiration(tier Tier) Outcome {
	return Fail(tier, FailureNoExpiration, "")
}

// OK reports whether the outcome carries an expiration timestamp.
func (o Outcome) OK() bool {
	return o.Failure == nil && !o.ExpiresAt.IsZero()
}
