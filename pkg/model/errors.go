package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable marks a failed read or write on the persistence layer.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedRecord marks a stored value that failed to decode.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrVoiceUnavailable means no synthesis voice or engine could be used.
	ErrVoiceUnavailable = errors.New("voice unavailable")

	ErrInvalidMood    = fmt.Errorf("mood must be between %d and %d", MinMood, MaxMood)
	ErrNoteTooLong    = fmt.Errorf("note exceeds %d characters", MaxNoteLength)
	ErrInvalidDateKey = errors.New("invalid date key")
	ErrWindowTooLarge = fmt.Errorf("window exceeds %d days", MaxWindowDays)
)

// StorageError wraps a backend failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorageUnavailable) match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// NewStorageError wraps err, or returns nil when err is nil.
func NewStorageError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Key: key, Err: err}
}
