// Package daily picks one item per calendar day from a fixed list.
package daily

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/bloomwell/bloom/pkg/calendar"
	"github.com/bloomwell/bloom/pkg/model"
)

// ErrEmptyContent is returned for an empty content list.
var ErrEmptyContent = errors.New("content list is empty")

// Cache is the journal's daily cache.
type Cache interface {
	Cached(ctx context.Context, category, dateKey string) (model.DailyCacheRecord, bool, error)
	CacheOnce(ctx context.Context, category, dateKey, payload string) (string, error)
}

// Options configures a Selector.
type Options struct {
	Cache    Cache
	Calendar *calendar.Calendar
	// Pacing delays a cache miss, for UX only.
	Pacing time.Duration
	Logger *slog.Logger
}

// Selector maps today's date onto one element of a list, cached per day.
type Selector struct {
	cache  Cache
	cal    *calendar.Calendar
	pacing time.Duration
	logger *slog.Logger
}

func New(opt Options) (*Selector, error) {
	if opt.Cache == nil {
		return nil, errors.New("daily cache is required")
	}
	if opt.Calendar == nil {
		opt.Calendar = calendar.New(nil, nil)
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Selector{cache: opt.Cache, cal: opt.Calendar, pacing: opt.Pacing, logger: opt.Logger}, nil
}

// Index maps a date onto [0, n): (day + month*31) mod n, month zero-based.
// Adjacent days land on adjacent indexes, so repeats only come around
// after n days.
func Index(t time.Time, n int) int {
	if n <= 0 {
		return 0
	}
	return (t.Day() + int(t.Month()-1)*31) % n
}

// Pick returns the element for date t without touching the cache.
func Pick(t time.Time, list []string) (string, error) {
	if len(list) == 0 {
		return "", ErrEmptyContent
	}
	return list[Index(t, len(list))], nil
}

// SelectForToday returns today's element for category. The first value
// computed on a date is cached and returned for the rest of that date.
// Cache failures degrade to the computed value.
func (s *Selector) SelectForToday(ctx context.Context, category string, list []string) (string, error) {
	if len(list) == 0 {
		return "", ErrEmptyContent
	}
	today := s.cal.Today()
	key := calendar.Key(today)

	rec, ok, err := s.cache.Cached(ctx, category, key)
	if err != nil {
		s.logger.Warn("daily cache read failed", "category", category, "date", key, "err", err)
	} else if ok {
		return rec.Payload, nil
	}

	if err := s.pace(ctx); err != nil {
		return "", err
	}

	picked, _ := Pick(today, list)
	stored, err := s.cache.CacheOnce(ctx, category, key, picked)
	if err != nil {
		s.logger.Warn("daily cache write failed", "category", category, "date", key, "err", err)
		return picked, nil
	}
	return stored, nil
}

func (s *Selector) pace(ctx context.Context) error {
	if s.pacing <= 0 {
		return nil
	}
	t := time.NewTimer(s.pacing)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
