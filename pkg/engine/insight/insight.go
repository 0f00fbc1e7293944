// Package insight aggregates a trailing window of journal entries into a
// snapshot. It only reads from the journal.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bloomwell/bloom/pkg/calendar"
	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/store"
)

const (
	DefaultWindowDays = 14
	DefaultWeeklyGoal = 5

	trendThreshold = 0.5
)

// Trend labels.
const (
	TrendImproving = "improving"
	TrendSteady    = "steady"
	TrendDeclining = "declining"
	TrendUnknown   = "unknown"
)

// Reader is the read side of the journal.
type Reader interface {
	Range(ctx context.Context, startOffsetDays, endOffsetDays int, order store.Order) ([]model.DatedEntry, error)
	Count(ctx context.Context) (int, error)
}

// Options configures an Engine.
type Options struct {
	Journal    Reader
	Extractor  Extractor
	WindowDays int
	WeeklyGoal int
	Logger     *slog.Logger
}

// Engine computes insight snapshots.
type Engine struct {
	journal    Reader
	extractor  Extractor
	window     int
	weeklyGoal int
	logger     *slog.Logger
}

// New builds an Engine.
func New(opt Options) (*Engine, error) {
	if opt.Journal == nil {
		return nil, errors.New("insight journal is required")
	}
	if opt.Extractor == nil {
		opt.Extractor = NewLexicon()
	}
	if opt.WindowDays <= 0 {
		opt.WindowDays = DefaultWindowDays
	}
	if opt.WindowDays > model.MaxWindowDays {
		opt.WindowDays = model.MaxWindowDays
	}
	if opt.WeeklyGoal <= 0 {
		opt.WeeklyGoal = DefaultWeeklyGoal
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Engine{
		journal:    opt.Journal,
		extractor:  opt.Extractor,
		window:     opt.WindowDays,
		weeklyGoal: opt.WeeklyGoal,
		logger:     opt.Logger,
	}, nil
}

// Compute builds a snapshot over the trailing windowDays (0 = configured
// default), today included.
func (e *Engine) Compute(ctx context.Context, windowDays int) (*model.InsightSnapshot, error) {
	if windowDays <= 0 {
		windowDays = e.window
	}
	if windowDays > model.MaxWindowDays {
		return nil, model.ErrWindowTooLarge
	}
	days, err := e.journal.Range(ctx, 0, windowDays-1, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	snap := &model.InsightSnapshot{
		WindowDays:    windowDays,
		StreakDays:    Streak(days),
		PositiveWords: e.positiveWords(days),
		WeeklyGoal:    e.weeklyGoal,
	}
	snap.AverageMood, snap.Entries = Average(days)
	snap.Trend = trend(days)
	snap.WeeklyCheckIns = present(days, 0, 7)
	snap.GrowthScore = min(snap.StreakDays*10+50, 100)
	snap.Timeline = timeline(days)

	total, err := e.journal.Count(ctx)
	if err != nil {
		e.logger.Warn("count entries failed; using window count", "err", err)
		total = snap.Entries
	}
	snap.Achievements = achievements(total, snap.StreakDays)
	return snap, nil
}

// Streak counts consecutive present days from the start of a newest-first
// window. A missing first day yields 0.
func Streak(newestFirst []model.DatedEntry) int {
	n := 0
	for _, d := range newestFirst {
		if !d.Present() {
			break
		}
		n++
	}
	return n
}

// Average returns the mean mood of present entries and how many there were.
// The mean is 0 when no entry is present.
func Average(days []model.DatedEntry) (float64, int) {
	sum, n := 0, 0
	for _, d := range days {
		if d.Present() {
			sum += d.Entry.Mood
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

func (e *Engine) positiveWords(newestFirst []model.DatedEntry) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, d := range newestFirst {
		if !d.Present() || d.Entry.Note == "" {
			continue
		}
		for _, w := range e.extractor.Extract(d.Entry.Note) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func present(newestFirst []model.DatedEntry, from, to int) int {
	n := 0
	for i := from; i < to && i < len(newestFirst); i++ {
		if newestFirst[i].Present() {
			n++
		}
	}
	return n
}

// trend compares this week's average with the previous week's.
func trend(newestFirst []model.DatedEntry) string {
	if len(newestFirst) < 14 {
		return TrendUnknown
	}
	recent, nRecent := Average(newestFirst[:7])
	prior, nPrior := Average(newestFirst[7:14])
	if nRecent == 0 || nPrior == 0 {
		return TrendUnknown
	}
	switch diff := recent - prior; {
	case diff >= trendThreshold:
		return TrendImproving
	case diff <= -trendThreshold:
		return TrendDeclining
	default:
		return TrendSteady
	}
}

func timeline(newestFirst []model.DatedEntry) []model.TimelineDay {
	out := make([]model.TimelineDay, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		d := newestFirst[i]
		day := model.TimelineDay{Date: d.Date}
		if t, err := calendar.Parse(d.Date, nil); err == nil {
			day.Day = t.Day()
		}
		if d.Present() {
			day.Mood = d.Entry.Mood
		}
		out = append(out, day)
	}
	return out
}

func achievements(total, streak int) []model.Achievement {
	return []model.Achievement{
		{ID: "first-steps", Title: "First Steps", Description: "Completed your first mood check-in", Icon: "🌱", Unlocked: total >= 1},
		{ID: "week-warrior", Title: "Week Warrior", Description: "7-day check-in streak", Icon: "🔥", Unlocked: streak >= 7},
		{ID: "monthly-milestone", Title: "Monthly Milestone", Description: "30 mood check-ins completed", Icon: "🏆", Unlocked: total >= 30},
		{ID: "consistency-champion", Title: "Consistency Champion", Description: "14-day check-in streak", Icon: "👑", Unlocked: streak >= 14},
	}
}
