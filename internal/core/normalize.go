package core

import (
	"sort"
	"time"
)

// NewRecord turns a tier outcome into a Record. This is the only place that
// computes days left and the alert flag, so every tier behaves identically
// downstream of its raw timestamp.
//
// now is the reference instant; only its UTC calendar date is used.
func NewRecord(domain string, outcome Outcome, now time.Time, alertDays int) Record {
	record := Record{Domain: domain}

	if !outcome.OK() {
		failure := outcome.Failure
		if failure == nil {
			failure = &Failure{Kind: FailureNoExpiration}
		}
		record.ErrorReason = failure.Reason()
		return record
	}

	expiresAt := outcome.ExpiresAt.UTC()
	days := DaysBetween(now, expiresAt)

	record.ExpiresAt = &expiresAt
	record.DaysLeft = &days
	record.Alert = days <= alertDays
	record.SourceTier = outcome.Tier
	return record
}

// DaysBetween returns the signed number of calendar days from the UTC date
// of from to the UTC date of to.
func DaysBetween(from, to time.Time) int {
	start := utcDate(from).Unix() / secondsPerDay
	end := utcDate(to).Unix() / secondsPerDay
	return int(end - start)
}

const secondsPerDay = 24 * 60 * 60

func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SortRecords orders records soonest-expiring first; unresolved records go
// last. Relative order of ties is unspecified.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		left, right := records[i].DaysLeft, records[j].DaysLeft
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		default:
			return *left < *right
		}
	})
}
