package core

import "time"

// Tier identifies the upstream source that produced an expiration date.
type Tier string

const (
	TierRegistry   Tier = "registry-protocol"
	TierLegacy     Tier = "legacy-text-protocol"
	TierAggregator Tier = "aggregator-api"
)

// Record is the normalized expiration result for one domain.
//
// Exactly one of ExpiresAt and ErrorReason is set. DaysLeft and SourceTier
// are set iff ExpiresAt is.
type Record struct {
	Domain      string     `json:"domain" yaml:"domain"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	DaysLeft    *int       `json:"days_left,omitempty" yaml:"days_left,omitempty"`
	Alert       bool       `json:"alert" yaml:"alert"`
	SourceTier  Tier       `json:"source_tier,omitempty" yaml:"source_tier,omitempty"`
	ErrorReason string     `json:"error_reason,omitempty" yaml:"error_reason,omitempty"`
}

// Resolved reports whether the record carries an expiration date.
func (r Record) Resolved() bool {
	return r.ExpiresAt != nil
}

// Settings captures the configuration a snapshot was built with.
type Settings struct {
	AlertDays         int    `json:"alert_days" yaml:"alert_days"`
	RefreshMinutes    int    `json:"refresh_minutes" yaml:"refresh_minutes"`
	RegistryBase      string `json:"rdap_base" yaml:"rdap_base"`
	LegacyEnabled     bool   `json:"legacy_enabled" yaml:"legacy_enabled"`
	AggregatorEnabled bool   `json:"aggregator_enabled" yaml:"aggregator_enabled"`
}

// Snapshot is the ordered result of one refresh cycle. It is never mutated
// after the assembler returns it.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Records     []Record  `json:"records" yaml:"records"`
	Settings    Settings  `json:"settings" yaml:"settings"`
}

// AlertCount returns the number of alerting records.
func (s *Snapshot) AlertCount() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, record := range s.Records {
		if record.Alert {
			count++
		}
	}
	return count
}
