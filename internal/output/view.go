package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/namelens/expirywatch/internal/core"
)

// DefaultAlertEmoji marks alerting labels when no marker is configured.
const DefaultAlertEmoji = "🔴"

const usDateLayout = "01/02/2006"

// StatusView is the served shape of a snapshot.
type StatusView struct {
	Updated        string       `json:"updated" yaml:"updated"`
	Domains        []DomainView `json:"domains" yaml:"domains"`
	RefreshMinutes int          `json:"refresh_minutes" yaml:"refresh_minutes"`
	AlertDays      int          `json:"alert_days" yaml:"alert_days"`
	RDAPBase       string       `json:"rdap_base" yaml:"rdap_base"`
	Fallbacks      Fallbacks    `json:"fallbacks" yaml:"fallbacks"`
}

// DomainView is one record as served to the dashboard.
type DomainView struct {
	Domain    string  `json:"domain" yaml:"domain"`
	Expires   *string `json:"expires" yaml:"expires"`
	ExpiresUS *string `json:"expires_us" yaml:"expires_us"`
	DaysLeft  *int    `json:"days_left" yaml:"days_left"`
	Label     string  `json:"label" yaml:"label"`
	Alert     bool    `json:"alert" yaml:"alert"`
	Source    *string `json:"source" yaml:"source"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Fallbacks reports which fallback tiers were enabled.
type Fallbacks struct {
	Whois      bool `json:"whois" yaml:"whois"`
	Aggregator bool `json:"aggregator" yaml:"aggregator"`
}

// NewStatusView renders snapshot for the status endpoint. A nil snapshot
// yields an empty view.
func NewStatusView(snapshot *core.Snapshot, emoji string) StatusView {
	if snapshot == nil {
		return StatusView{Domains: []DomainView{}}
	}

	view := StatusView{
		Updated:        formatUpdated(snapshot.GeneratedAt),
		Domains:        make([]DomainView, 0, len(snapshot.Records)),
		RefreshMinutes: snapshot.Settings.RefreshMinutes,
		AlertDays:      snapshot.Settings.AlertDays,
		RDAPBase:       snapshot.Settings.RegistryBase,
		Fallbacks: Fallbacks{
			Whois:      snapshot.Settings.LegacyEnabled,
			Aggregator: snapshot.Settings.AggregatorEnabled,
		},
	}

	for _, record := range snapshot.Records {
		view.Domains = append(view.Domains, NewDomainView(record, emoji))
	}
	return view
}

// NewDomainView renders a single record.
func NewDomainView(record core.Record, emoji string) DomainView {
	view := DomainView{
		Domain: record.Domain,
		Label:  Label(record, emoji),
		Alert:  record.Alert,
	}

	if !record.Resolved() {
		view.Error = record.ErrorReason
		return view
	}

	expires := record.ExpiresAt.UTC().Format(time.RFC3339)
	expiresUS := record.ExpiresAt.UTC().Format(usDateLayout)
	source := string(record.SourceTier)
	days := *record.DaysLeft

	view.Expires = &expires
	view.ExpiresUS = &expiresUS
	view.DaysLeft = &days
	view.Source = &source
	return view
}

// Label renders the dashboard label: "[<emoji> ]MM/DD/YYYY (Nd)" when
// resolved, "n/a" otherwise.
func Label(record core.Record, emoji string) string {
	if !record.Resolved() || record.DaysLeft == nil {
		return "n/a"
	}
	label := fmt.Sprintf("%s (%dd)", record.ExpiresAt.UTC().Format(usDateLayout), *record.DaysLeft)
	if record.Alert {
		label = alertMarker(emoji) + " " + label
	}
	return label
}

// FlatLine renders a record as a single human-readable line.
func FlatLine(record core.Record, emoji string) string {
	if !record.Resolved() || record.DaysLeft == nil {
		line := record.Domain + " — Exp: n/a"
		if record.ErrorReason != "" {
			line += " [" + record.ErrorReason + "]"
		}
		return line
	}
	return record.Domain + " — Exp: " + Label(record, emoji)
}

// FlatLines is the flattened snapshot: line1..lineN in snapshot order plus
// the update time. It marshals with keys in that order.
type FlatLines struct {
	Lines   []string
	Updated string
}

// NewFlatLines flattens snapshot.
func NewFlatLines(snapshot *core.Snapshot, emoji string) FlatLines {
	if snapshot == nil {
		return FlatLines{}
	}
	lines := make([]string, 0, len(snapshot.Records))
	for _, record := range snapshot.Records {
		lines = append(lines, FlatLine(record, emoji))
	}
	return FlatLines{Lines: lines, Updated: formatUpdated(snapshot.GeneratedAt)}
}

// MarshalJSON emits {"line1": ..., "lineN": ..., "updated": ...}.
func (f FlatLines) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, line := range f.Lines {
		if err := writeMember(&buf, "line"+strconv.Itoa(i+1), line); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeMember(&buf, "updated", f.Updated); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key, value string) error {
	encodedKey, err := json.Marshal(key)
	if err != nil {
		return err
	}
	encodedValue, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(encodedKey)
	buf.WriteByte(':')
	buf.Write(encodedValue)
	return nil
}

func alertMarker(emoji string) string {
	if strings.TrimSpace(emoji) == "" {
		return DefaultAlertEmoji
	}
	return emoji
}

func formatUpdated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
