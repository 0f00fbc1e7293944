// Package practice stores the self-care exercises: gratitude, best thing
// of the day, and completion flags.
package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/store"
)

const (
	CategoryGratitude = "gratitude"
	CategoryBestThing = "best"
)

var (
	ErrEmptyGratitude  = errors.New("gratitude needs at least one answer")
	ErrEmptyBestThing  = errors.New("best thing is blank")
	ErrUnknownExercise = errors.New("unknown exercise")
)

// Exercise is a practice that can be marked done for the day.
type Exercise string

const (
	Breathing   Exercise = "breathing"
	Mindfulness Exercise = "mindfulness"
	EnergyBoost Exercise = "energy-boost"
)

func ParseExercise(s string) (Exercise, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breathing":
		return Breathing, nil
	case "mindfulness":
		return Mindfulness, nil
	case "energy-boost", "energy":
		return EnergyBoost, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExercise, s)
}

// Gratitude is the three-prompt gratitude practice.
type Gratitude struct {
	Small  string `json:"small"`
	Person string `json:"person"`
	Self   string `json:"self"`
}

func (g Gratitude) normalize() Gratitude {
	return Gratitude{
		Small:  strings.TrimSpace(g.Small),
		Person: strings.TrimSpace(g.Person),
		Self:   strings.TrimSpace(g.Self),
	}
}

func (g Gratitude) empty() bool { return g.Small == "" && g.Person == "" && g.Self == "" }

type Options struct {
	Journal *store.Journal
	Gate    *safety.Gate
	Logger  *slog.Logger
}

type Service struct {
	journal *store.Journal
	gate    *safety.Gate
	logger  *slog.Logger
}

func New(opt Options) (*Service, error) {
	if opt.Journal == nil {
		return nil, errors.New("practice journal is required")
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Gate == nil {
		opt.Gate = safety.NewGate(nil, opt.Logger)
	}
	return &Service{journal: opt.Journal, gate: opt.Gate, logger: opt.Logger}, nil
}

func checkLength(s string) error {
	if utf8.RuneCountInString(s) > model.MaxNoteLength {
		return model.ErrNoteTooLong
	}
	return nil
}

// SaveGratitude stores today's answers, replacing earlier ones.
func (s *Service) SaveGratitude(ctx context.Context, g Gratitude) (safety.Verdict, error) {
	g = g.normalize()
	if g.empty() {
		return safety.Verdict{}, ErrEmptyGratitude
	}
	for _, f := range []string{g.Small, g.Person, g.Self} {
		if err := checkLength(f); err != nil {
			return safety.Verdict{}, err
		}
	}
	verdict := s.gate.Screen(safety.SurfaceGratitude, strings.Join([]string{g.Small, g.Person, g.Self}, "\n"))

	raw, err := json.Marshal(g)
	if err != nil {
		return verdict, fmt.Errorf("encode gratitude: %w", err)
	}
	if err := s.journal.SetDaily(ctx, CategoryGratitude, s.journal.Calendar().TodayKey(), string(raw)); err != nil {
		return verdict, fmt.Errorf("save gratitude: %w", err)
	}
	return verdict, nil
}

// Gratitude returns the answers saved on dateKey.
func (s *Service) Gratitude(ctx context.Context, dateKey string) (Gratitude, bool, error) {
	rec, ok, err := s.journal.Cached(ctx, CategoryGratitude, dateKey)
	if err != nil || !ok {
		return Gratitude{}, false, err
	}
	var g Gratitude
	if err := json.Unmarshal([]byte(rec.Payload), &g); err != nil {
		return Gratitude{}, false, fmt.Errorf("%w: gratitude %s: %v", model.ErrMalformedRecord, dateKey, err)
	}
	return g, true, nil
}

// SaveBestThing stores today's best thing, replacing an earlier one.
func (s *Service) SaveBestThing(ctx context.Context, text string) (safety.Verdict, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return safety.Verdict{}, ErrEmptyBestThing
	}
	if err := checkLength(text); err != nil {
		return safety.Verdict{}, err
	}
	verdict := s.gate.Screen(safety.SurfaceBestThing, text)
	if err := s.journal.SetDaily(ctx, CategoryBestThing, s.journal.Calendar().TodayKey(), text); err != nil {
		return verdict, fmt.Errorf("save best thing: %w", err)
	}
	return verdict, nil
}

// BestThings returns today's and yesterday's entries; missing ones are "".
func (s *Service) BestThings(ctx context.Context) (today, yesterday string, err error) {
	cal := s.journal.Calendar()
	if today, err = s.bestThing(ctx, cal.TodayKey()); err != nil {
		return "", "", err
	}
	if yesterday, err = s.bestThing(ctx, cal.KeyDaysAgo(1)); err != nil {
		return "", "", err
	}
	return today, yesterday, nil
}

func (s *Service) bestThing(ctx context.Context, dateKey string) (string, error) {
	rec, _, err := s.journal.Cached(ctx, CategoryBestThing, dateKey)
	return rec.Payload, err
}

// Complete marks ex done for today.
func (s *Service) Complete(ctx context.Context, ex Exercise) error {
	if _, err := ParseExercise(string(ex)); err != nil {
		return err
	}
	if err := s.journal.MarkDone(ctx, string(ex), s.journal.Calendar().TodayKey()); err != nil {
		return fmt.Errorf("mark %s done: %w", ex, err)
	}
	s.logger.Info("exercise completed", "exercise", ex)
	return nil
}

// Completed reports whether ex was marked done on dateKey.
func (s *Service) Completed(ctx context.Context, ex Exercise, dateKey string) (bool, error) {
	return s.journal.IsDone(ctx, string(ex), dateKey)
}
