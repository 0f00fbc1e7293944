package practice

import (
	"context"
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

type fixture struct {
	kv  *memory.KV
	svc *Service
	rec *safety.Recorder
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{kv: memory.NewKV(), rec: &safety.Recorder{}, now: time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)}
	j, err := store.New(store.Options{
		Backend:  f.kv,
		Calendar: calendar.New(func() time.Time { return f.now }, time.UTC),
		Logger:   logger,
	})
	require.NoError(t, err)
	f.svc, err = New(Options{Journal: j, Gate: safety.NewGate(f.rec, logger), Logger: logger})
	require.NoError(t, err)
	return f
}

func TestGratitude(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SaveGratitude(ctx, Gratitude{Small: "  ", Person: ""})
	assert.ErrorIs(t, err, ErrEmptyGratitude)

	v, err := f.svc.SaveGratitude(ctx, Gratitude{Small: " warm tea ", Person: "my sister"})
	require.NoError(t, err)
	assert.False(t, v.Crisis)

	raw, ok, err := f.kv.Get(ctx, "gratitude-2026-10-18")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"small":"warm tea","person":"my sister","self":""}`, raw)

	g, ok, err := f.svc.Gratitude(ctx, "2026-10-18")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Gratitude{Small: "warm tea", Person: "my sister"}, g)

	_, ok, err = f.svc.Gratitude(ctx, "2026-10-17")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.kv.Set(ctx, "gratitude-2026-10-16", "nope"))
	_, _, err = f.svc.Gratitude(ctx, "2026-10-16")
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
}

func TestGratitudeScreensEveryField(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.SaveGratitude(context.Background(), Gratitude{Self: "that I didn't hurt myself"})
	require.NoError(t, err)
	assert.True(t, v.Crisis)
	require.Len(t, f.rec.Signals(), 1)
	assert.Equal(t, safety.SurfaceGratitude, f.rec.Signals()[0].Surface)
}

func TestBestThings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SaveBestThing(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyBestThing)

	_, err = f.svc.SaveBestThing(ctx, "sunrise run")
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 1)
	today, yesterday, err := f.svc.BestThings(ctx)
	require.NoError(t, err)
	assert.Empty(t, today)
	assert.Equal(t, "sunrise run", yesterday)

	_, err = f.svc.SaveBestThing(ctx, "first")
	require.NoError(t, err)
	_, err = f.svc.SaveBestThing(ctx, "changed my mind")
	require.NoError(t, err)
	today, _, err = f.svc.BestThings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", today)
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Complete(ctx, EnergyBoost))
	raw, ok, err := f.kv.Get(ctx, "energy-boost-2026-10-18")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "completed", raw)

	done, err := f.svc.Completed(ctx, EnergyBoost, "2026-10-18")
	require.NoError(t, err)
	assert.True(t, done)
	done, err = f.svc.Completed(ctx, Mindfulness, "2026-10-18")
	require.NoError(t, err)
	assert.False(t, done)

	assert.ErrorIs(t, f.svc.Complete(ctx, Exercise("yoga")), ErrUnknownExercise)
}

func TestParseExercise(t *testing.T) {
	for in, want := range map[string]Exercise{"breathing": Breathing, "Mindfulness": Mindfulness, "energy": EnergyBoost, "energy-boost": EnergyBoost} {
		got, err := ParseExercise(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPhaseAt(t *testing.T) {
	assert.Equal(t, 19*time.Second, CycleLength(Breathing478))

	tests := []struct {
		elapsed   time.Duration
		phase     Phase
		remaining time.Duration
		cycle     int
	}{
		{0, Inhale, 4 * time.Second, 0},
		{-time.Second, Inhale, 4 * time.Second, 0},
		{3500 * time.Millisecond, Inhale, 500 * time.Millisecond, 0},
		{4 * time.Second, Hold, 7 * time.Second, 0},
		{11 * time.Second, Exhale, 8 * time.Second, 0},
		{18 * time.Second, Exhale, time.Second, 0},
		{19 * time.Second, Inhale, 4 * time.Second, 1},
		{40 * time.Second, Inhale, 2 * time.Second, 2},
	}
	for _, tt := range tests {
		step, remaining, cycle := PhaseAt(Breathing478, tt.elapsed)
		assert.Equal(t, tt.phase, step.Phase, tt.elapsed)
		assert.Equal(t, tt.remaining, remaining, tt.elapsed)
		assert.Equal(t, tt.cycle, cycle, tt.elapsed)
	}

	step, _, _ := PhaseAt(nil, time.Second)
	assert.Empty(t, step.Phase)
}
