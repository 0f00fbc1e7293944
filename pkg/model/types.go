package model

import (
	"context"
	"time"
)

// Mood bounds for a daily check-in.
const (
	MinMood = 1
	MaxMood = 5

	// MaxNoteLength caps a check-in note, in runes.
	MaxNoteLength = 500

	// MaxWindowDays bounds any trailing range read in one call.
	MaxWindowDays = 366
)

// MoodEntry is one check-in for a calendar date.
type MoodEntry struct {
	Mood      int       `json:"mood"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DatedEntry pairs a date key with the entry stored for it, if any.
type DatedEntry struct {
	Date  string     `json:"date"`
	Entry *MoodEntry `json:"entry,omitempty"`
}

// Present reports whether an entry exists for the date.
func (d DatedEntry) Present() bool { return d.Entry != nil }

// DailyCacheRecord is a date-scoped derived value (affirmation, flag, ...).
type DailyCacheRecord struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Payload  string `json:"payload"`
}

// TimelineDay is one slot of the insight timeline.
type TimelineDay struct {
	Date string `json:"date"`
	Day  int    `json:"day"`
	Mood int    `json:"mood,omitempty"`
}

// Achievement is a milestone derived from journal activity.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// InsightSnapshot is recomputed on demand from a trailing window of entries.
type InsightSnapshot struct {
	WindowDays     int           `json:"window_days"`
	StreakDays     int           `json:"streak_days"`
	AverageMood    float64       `json:"average_mood"`
	PositiveWords  []string      `json:"positive_words"`
	Entries        int           `json:"entries"`
	Trend          string        `json:"trend"`
	WeeklyCheckIns int           `json:"weekly_check_ins"`
	WeeklyGoal     int           `json:"weekly_goal"`
	GrowthScore    int           `json:"growth_score"`
	Timeline       []TimelineDay `json:"timeline"`
	Achievements   []Achievement `json:"achievements"`
}

// Sender identifies who wrote a conversation message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// ConversationMessage is one turn in a chat session.
type ConversationMessage struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// VoiceDescriptor is a synthesis voice exposed by the host platform.
type VoiceDescriptor struct {
	Name string `json:"name" yaml:"name"`
	Lang string `json:"lang" yaml:"lang"`
}

// KeyValueStore is the persistence collaborator. Keys look like
// "<category>-<YYYY-MM-DD>"; values are opaque strings.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
