package pkg

import (
	"fmt"
	"time"
)

// ISOWeekKey returns a stable key for the ISO week of t, for scoping the
// used-routine set: "2025-W14".
func ISOWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// DateKey is the UTC calendar day used for daily bonus gating.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
