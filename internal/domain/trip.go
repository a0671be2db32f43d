// Package domain contains the core data types for the Wanderlust trip planner.
// This package has zero external dependencies and is imported by every other
// internal package (repo, aggregate, service, handler).
package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Trip is the top-level planning unit owned by a user.
// Itinerary items, expenses and packing items live under the trip's path and
// are removed with it.
type Trip struct {
	ID          string
	Owner       string
	Name        string
	Destination string
	StartDate   time.Time // zero when not set
	EndDate     time.Time // zero when not set
	Notes       string
	IsShared    bool
	ShareToken  string
	CreatedAt   time.Time
}

// DisplayName returns the trip name, or "Unnamed Trip" when it is blank.
func (t Trip) DisplayName() string {
	if strings.TrimSpace(t.Name) == "" {
		return "Unnamed Trip"
	}
	return t.Name
}

// HasDates reports whether both start and end dates are set.
func (t Trip) HasDates() bool {
	return !t.StartDate.IsZero() && !t.EndDate.IsZero()
}

// ParseDate parses a "2006-01-02" calendar date.
// The second return value is false for empty or malformed input, in which case
// the returned time is the zero value.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDate renders d as "2006-01-02", or "" for the zero time.
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}
