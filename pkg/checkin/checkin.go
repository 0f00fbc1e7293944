// Package checkin records the daily mood check-in.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/store"
)

type Options struct {
	Journal *store.Journal
	Gate    *safety.Gate
	Logger  *slog.Logger
}

// Service screens the note and writes today's entry.
type Service struct {
	journal *store.Journal
	gate    *safety.Gate
	logger  *slog.Logger
}

// Result of a check-in. Verdict is set when the note contained crisis
// language; the entry is saved either way.
type Result struct {
	DateKey string          `json:"date"`
	Entry   model.MoodEntry `json:"entry"`
	Verdict safety.Verdict  `json:"verdict"`
}

func New(opt Options) (*Service, error) {
	if opt.Journal == nil {
		return nil, errors.New("checkin journal is required")
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Gate == nil {
		opt.Gate = safety.NewGate(nil, opt.Logger)
	}
	return &Service{journal: opt.Journal, gate: opt.Gate, logger: opt.Logger}, nil
}

// Submit records mood and note for today, replacing an earlier check-in
// on the same date.
func (s *Service) Submit(ctx context.Context, mood int, note string) (*Result, error) {
	entry := model.MoodEntry{Mood: mood, Note: note}.Normalize()
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	verdict := s.gate.Screen(safety.SurfaceMoodNote, entry.Note)
	entry.Timestamp = s.journal.Calendar().Now()

	key, err := s.journal.PutToday(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("save check-in: %w", err)
	}
	s.logger.Info("check-in saved", "date", key, "mood", entry.Mood)
	return &Result{DateKey: key, Entry: entry, Verdict: verdict}, nil
}

// Today returns today's entry, if any.
func (s *Service) Today(ctx context.Context) (model.MoodEntry, bool, error) {
	return s.journal.Get(ctx, s.journal.Calendar().TodayKey())
}

func (s *Service) Get(ctx context.Context, dateKey string) (model.MoodEntry, bool, error) {
	return s.journal.Get(ctx, dateKey)
}

// History returns the last days dates, newest first.
func (s *Service) History(ctx context.Context, days int) ([]model.DatedEntry, error) {
	if days <= 0 {
		days = 7
	}
	if days > model.MaxWindowDays {
		return nil, model.ErrWindowTooLarge
	}
	return s.journal.Range(ctx, 0, days-1, store.NewestFirst)
}
