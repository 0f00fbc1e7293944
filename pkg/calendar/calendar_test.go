package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t time.Time) Clock { return func() time.Time { return t } }

func TestTodayKeyUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on the 1st is already the 2nd in Tokyo.
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01", New(fixed(now), time.UTC).TodayKey())
	assert.Equal(t, "2026-03-02", New(fixed(now), tokyo).TodayKey())
}

func TestDaysAgoCrossesMonthAndDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST starts 2026-03-08 in New York.
	c := New(fixed(time.Date(2026, 3, 9, 0, 30, 0, 0, ny)), ny)
	assert.Equal(t, "2026-03-09", c.KeyDaysAgo(0))
	assert.Equal(t, "2026-03-08", c.KeyDaysAgo(1))
	assert.Equal(t, "2026-03-07", c.KeyDaysAgo(2))
	assert.Equal(t, "2026-02-28", c.KeyDaysAgo(9))
}

func TestSplitStorageKey(t *testing.T) {
	tests := []struct {
		key      string
		category string
		date     string
		ok       bool
	}{
		{"mood-2026-01-02", "mood", "2026-01-02", true},
		{"energy-boost-2026-01-02", "energy-boost", "2026-01-02", true},
		{"mood-2026-13-02", "", "", false},
		{"-2026-01-02", "", "", false},
		{"mood2026-01-02", "", "", false},
		{"short", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			category, date, ok := SplitStorageKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.date, date)
		})
	}
}

func TestStorageKeyRoundTrip(t *testing.T) {
	key := StorageKey("affirmation", "2026-10-18")
	assert.Equal(t, "affirmation-2026-10-18", key)
	category, date, ok := SplitStorageKey(key)
	require.True(t, ok)
	assert.Equal(t, "affirmation", category)
	assert.Equal(t, "2026-10-18", date)
}
