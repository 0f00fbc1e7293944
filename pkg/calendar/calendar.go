// Package calendar maps instants onto local calendar-date keys.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the ISO date layout used in storage keys.
const KeyLayout = "2006-01-02"

// Clock returns the current instant.
type Clock func() time.Time

// Calendar resolves "today" in a fixed location.
type Calendar struct {
	now Clock
	loc *time.Location
}

// New returns a Calendar. Nil arguments default to time.Now and time.Local.
func New(now Clock, loc *time.Location) *Calendar {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{now: now, loc: loc}
}

// Now returns the current instant in the calendar's location.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// Location returns the calendar's location.
func (c *Calendar) Location() *time.Location { return c.loc }

// Today returns midnight of the current local date.
func (c *Calendar) Today() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}

// TodayKey returns the date key for today.
func (c *Calendar) TodayKey() string { return Key(c.Today()) }

// DaysAgo returns midnight of the date n days before today. Calendar
// arithmetic keeps DST transitions from skipping or repeating a date.
func (c *Calendar) DaysAgo(n int) time.Time {
	t := c.Today()
	return time.Date(t.Year(), t.Month(), t.Day()-n, 0, 0, 0, 0, c.loc)
}

// KeyDaysAgo returns the date key n days before today.
func (c *Calendar) KeyDaysAgo(n int) string { return Key(c.DaysAgo(n)) }

// Key formats t as YYYY-MM-DD in its own location.
func Key(t time.Time) string { return t.Format(KeyLayout) }

// Parse parses a date key in loc.
func Parse(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(KeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, err)
	}
	return t, nil
}

// Valid reports whether key is a well-formed date key.
func Valid(key string) bool {
	_, err := time.Parse(KeyLayout, key)
	return err == nil
}

// StorageKey joins a category and date key: "<category>-<date>".
func StorageKey(category, dateKey string) string {
	return category + "-" + dateKey
}

// SplitStorageKey recovers the category and date from a storage key. The
// category itself may contain dashes ("energy-boost-2026-01-02").
func SplitStorageKey(key string) (category, dateKey string, ok bool) {
	if len(key) < len(KeyLayout)+2 {
		return "", "", false
	}
	cut := len(key) - len(KeyLayout)
	if key[cut-1] != '-' {
		return "", "", false
	}
	category, dateKey = key[:cut-1], key[cut:]
	if strings.TrimSpace(category) == "" || !Valid(dateKey) {
		return "", "", false
	}
	return category, dateKey, true
}
