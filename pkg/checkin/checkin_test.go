package checkin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomwell/bloom/pkg/calendar"
	"github.com/bloomwell/bloom/pkg/memory"
	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/store"
)

var testNow = time.Date(2026, 10, 18, 20, 15, 0, 0, time.UTC)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newService(t *testing.T, kv model.KeyValueStore, rec *safety.Recorder) *Service {
	t.Helper()
	j, err := store.New(store.Options{
		Backend:  kv,
		Calendar: calendar.New(func() time.Time { return testNow }, time.UTC),
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	s, err := New(Options{Journal: j, Gate: safety.NewGate(rec, quietLogger()), Logger: quietLogger()})
	require.NoError(t, err)
	return s
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	s := newService(t, memory.NewKV(), nil)

	res, err := s.Submit(ctx, 4, " walked by the river ")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", res.DateKey)
	assert.Equal(t, "walked by the river", res.Entry.Note)
	assert.True(t, res.Entry.Timestamp.Equal(testNow))
	assert.False(t, res.Verdict.Crisis)

	got, ok, err := s.Today(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, got.Mood)

	_, err = s.Submit(ctx, 2, "")
	require.NoError(t, err)
	history, err := s.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 2, history[0].Entry.Mood)
	assert.False(t, history[1].Present())
}

func TestSubmitCrisisStillSaves(t *testing.T) {
	rec := &safety.Recorder{}
	s := newService(t, memory.NewKV(), rec)

	res, err := s.Submit(context.Background(), 1, "I can't go on like this")
	require.NoError(t, err)
	assert.True(t, res.Verdict.Crisis)
	require.Len(t, rec.Signals(), 1)
	assert.Equal(t, safety.SurfaceMoodNote, rec.Signals()[0].Surface)

	_, ok, err := s.Get(context.Background(), "2026-10-18")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitInvalid(t *testing.T) {
	rec := &safety.Recorder{}
	s := newService(t, memory.NewKV(), rec)
	_, err := s.Submit(context.Background(), 7, "want to die")
	assert.ErrorIs(t, err, model.ErrInvalidMood)
	assert.Empty(t, rec.Signals())
}

type readOnlyKV struct{ *memory.KV }

func (readOnlyKV) Set(context.Context, string, string) error { return errors.New("quota exceeded") }

func TestSubmitSurfacesWriteFailure(t *testing.T) {
	s := newService(t, readOnlyKV{memory.NewKV()}, nil)
	_, err := s.Submit(context.Background(), 3, "")
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)
}

func TestHistoryBounded(t *testing.T) {
	s := newService(t, memory.NewKV(), nil)
	_, err := s.History(context.Background(), model.MaxWindowDays+1)
	assert.ErrorIs(t, err, model.ErrWindowTooLarge)

	days, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, days, 7)
}
