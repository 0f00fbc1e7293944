package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bloomwell/bloom/pkg/calendar"
	"github.com/bloomwell/bloom/pkg/model"
)

// MoodCategory is the key category for check-in entries.
const MoodCategory = "mood"

// DefaultCacheRetention bounds how long daily caches are kept.
const DefaultCacheRetention = 90 * 24 * time.Hour

// doneMarker is the payload of a completion flag.
const doneMarker = "completed"

// ErrReservedCategory is returned when a cache call targets mood entries.
var ErrReservedCategory = errors.New("category is reserved for mood entries")

// Order selects the direction of Range results.
type Order int

const (
	OldestFirst Order = iota
	NewestFirst
)

// Options configures a Journal.
type Options struct {
	Backend  model.KeyValueStore
	Calendar *calendar.Calendar
	// CacheRetention is how long daily caches survive PruneCaches.
	// Zero means DefaultCacheRetention; negative disables pruning.
	CacheRetention time.Duration
	Logger         *slog.Logger
}

// Journal is the entry store: one mood entry per local date plus
// date-scoped caches, all persisted through a KeyValueStore.
type Journal struct {
	kv        model.KeyValueStore
	cal       *calendar.Calendar
	retention time.Duration
	logger    *slog.Logger
}

// New builds a Journal over opt.Backend.
func New(opt Options) (*Journal, error) {
	if opt.Backend == nil {
		return nil, errors.New("journal backend is required")
	}
	if opt.Calendar == nil {
		opt.Calendar = calendar.New(nil, nil)
	}
	if opt.CacheRetention == 0 {
		opt.CacheRetention = DefaultCacheRetention
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Journal{
		kv:        opt.Backend,
		cal:       opt.Calendar,
		retention: opt.CacheRetention,
		logger:    opt.Logger,
	}, nil
}

// Calendar returns the calendar used to resolve "today".
func (j *Journal) Calendar() *calendar.Calendar { return j.cal }

// Put writes the entry for dateKey, replacing any previous one.
func (j *Journal) Put(ctx context.Context, dateKey string, entry model.MoodEntry) error {
	if !calendar.Valid(dateKey) {
		return fmt.Errorf("%w: %q", model.ErrInvalidDateKey, dateKey)
	}
	entry = entry.Normalize()
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = j.cal.Now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode mood entry: %w", err)
	}
	key := calendar.StorageKey(MoodCategory, dateKey)
	if err := j.kv.Set(ctx, key, string(raw)); err != nil {
		return model.NewStorageError("put", key, err)
	}
	return nil
}

// PutToday writes the entry under today's date key and returns the key.
func (j *Journal) PutToday(ctx context.Context, entry model.MoodEntry) (string, error) {
	key := j.cal.TodayKey()
	return key, j.Put(ctx, key, entry)
}

// Get reads the entry for dateKey.
func (j *Journal) Get(ctx context.Context, dateKey string) (model.MoodEntry, bool, error) {
	if !calendar.Valid(dateKey) {
		return model.MoodEntry{}, false, fmt.Errorf("%w: %q", model.ErrInvalidDateKey, dateKey)
	}
	key := calendar.StorageKey(MoodCategory, dateKey)
	raw, ok, err := j.kv.Get(ctx, key)
	if err != nil {
		return model.MoodEntry{}, false, model.NewStorageError("get", key, err)
	}
	if !ok {
		return model.MoodEntry{}, false, nil
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return model.MoodEntry{}, false, fmt.Errorf("%w: %s: %v", model.ErrMalformedRecord, key, err)
	}
	return entry, true, nil
}

func decodeEntry(raw string) (model.MoodEntry, error) {
	var entry model.MoodEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return model.MoodEntry{}, err
	}
	if err := entry.Validate(); err != nil {
		return model.MoodEntry{}, err
	}
	return entry, nil
}

// Range returns one element per date between startOffsetDays and
// endOffsetDays back from today (inclusive, 0 = today). Records that cannot
// be read or decoded are reported as absent.
func (j *Journal) Range(ctx context.Context, startOffsetDays, endOffsetDays int, order Order) ([]model.DatedEntry, error) {
	if startOffsetDays < 0 || endOffsetDays < 0 {
		return nil, fmt.Errorf("range offsets must be non-negative: %d..%d", startOffsetDays, endOffsetDays)
	}
	lo, hi := startOffsetDays, endOffsetDays
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo >= model.MaxWindowDays {
		return nil, fmt.Errorf("range %d..%d: %w", lo, hi, model.ErrWindowTooLarge)
	}

	out := make([]model.DatedEntry, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dateKey := j.cal.KeyDaysAgo(i)
		item := model.DatedEntry{Date: dateKey}
		entry, ok, err := j.Get(ctx, dateKey)
		switch {
		case err != nil:
			j.logger.Warn("skipping unreadable mood entry", "date", dateKey, "err", err)
		case ok:
			item.Entry = &entry
		}
		out = append(out, item)
	}

	if order == OldestFirst {
		for a, b := 0, len(out)-1; a < b; a, b = a+1, b-1 {
			out[a], out[b] = out[b], out[a]
		}
	}
	return out, nil
}

// Count returns how many mood entries have ever been written.
func (j *Journal) Count(ctx context.Context) (int, error) {
	keys, err := j.kv.Keys(ctx, MoodCategory+"-")
	if err != nil {
		return 0, model.NewStorageError("count", MoodCategory, err)
	}
	n := 0
	for _, k := range keys {
		if category, _, ok := calendar.SplitStorageKey(k); ok && category == MoodCategory {
			n++
		}
	}
	return n, nil
}

func checkCategory(category, dateKey string) error {
	if strings.TrimSpace(category) == "" {
		return errors.New("cache category is required")
	}
	if category == MoodCategory {
		return ErrReservedCategory
	}
	if !calendar.Valid(dateKey) {
		return fmt.Errorf("%w: %q", model.ErrInvalidDateKey, dateKey)
	}
	return nil
}

// Cached returns the daily cache record for (category, dateKey).
func (j *Journal) Cached(ctx context.Context, category, dateKey string) (model.DailyCacheRecord, bool, error) {
	if err := checkCategory(category, dateKey); err != nil {
		return model.DailyCacheRecord{}, false, err
	}
	key := calendar.StorageKey(category, dateKey)
	payload, ok, err := j.kv.Get(ctx, key)
	if err != nil {
		return model.DailyCacheRecord{}, false, model.NewStorageError("get", key, err)
	}
	if !ok {
		return model.DailyCacheRecord{}, false, nil
	}
	return model.DailyCacheRecord{Category: category, Date: dateKey, Payload: payload}, true, nil
}

// CacheOnce stores payload unless a record already exists, and returns the
// payload that is stored after the call.
func (j *Journal) CacheOnce(ctx context.Context, category, dateKey, payload string) (string, error) {
	rec, ok, err := j.Cached(ctx, category, dateKey)
	if err != nil {
		return "", err
	}
	if ok {
		return rec.Payload, nil
	}
	key := calendar.StorageKey(category, dateKey)
	if err := j.kv.Set(ctx, key, payload); err != nil {
		return "", model.NewStorageError("put", key, err)
	}
	return payload, nil
}

// SetDaily writes a user-authored daily record, replacing any previous one.
func (j *Journal) SetDaily(ctx context.Context, category, dateKey, payload string) error {
	if err := checkCategory(category, dateKey); err != nil {
		return err
	}
	key := calendar.StorageKey(category, dateKey)
	if err := j.kv.Set(ctx, key, payload); err != nil {
		return model.NewStorageError("put", key, err)
	}
	return nil
}

// MarkDone records a completion flag for (category, dateKey).
func (j *Journal) MarkDone(ctx context.Context, category, dateKey string) error {
	_, err := j.CacheOnce(ctx, category, dateKey, doneMarker)
	return err
}

// IsDone reports whether a completion flag exists.
func (j *Journal) IsDone(ctx context.Context, category, dateKey string) (bool, error) {
	rec, ok, err := j.Cached(ctx, category, dateKey)
	if err != nil {
		return false, err
	}
	return ok && rec.Payload == doneMarker, nil
}

// PruneCaches removes daily cache records older than the retention window.
// Mood entries are never removed.
func (j *Journal) PruneCaches(ctx context.Context) (int, error) {
	if j.retention < 0 {
		return 0, nil
	}
	keys, err := j.kv.Keys(ctx, "")
	if err != nil {
		return 0, model.NewStorageError("list", "*", err)
	}
	cutoff := calendar.Key(j.cal.DaysAgo(int(j.retention / (24 * time.Hour))))

	removed := 0
	for _, k := range keys {
		category, dateKey, ok := calendar.SplitStorageKey(k)
		if !ok || category == MoodCategory || dateKey >= cutoff {
			continue
		}
		if err := j.kv.Remove(ctx, k); err != nil {
			return removed, model.NewStorageError("remove", k, err)
		}
		removed++
	}
	if removed > 0 {
		j.logger.Info("pruned daily caches", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}
