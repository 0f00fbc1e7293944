package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks mood bounds and note length.
func (e MoodEntry) Validate() error {
	if e.Mood < MinMood || e.Mood > MaxMood {
		return fmt.Errorf("%w: got %d", ErrInvalidMood, e.Mood)
	}
	if utf8.RuneCountInString(e.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// Normalize trims the note.
func (e MoodEntry) Normalize() MoodEntry {
	e.Note = strings.TrimSpace(e.Note)
	return e
}
