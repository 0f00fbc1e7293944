package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomwell/bloom/pkg/persona"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("BLOOM_DOTENV", "off")
	t.Setenv("BLOOM_BACKEND", "sqlite")
	t.Setenv("BLOOM_TIMEZONE", "UTC")
	t.Setenv("BLOOM_RESPONSE_DELAY", "0s")
	t.Setenv("BLOOM_RESPONSE_JITTER", "0s")
	t.Setenv("BLOOM_VOICE_CATALOG", "")
	t.Setenv("BLOOM_SPEECH_COMMAND", "")
	return filepath.Join(t.TempDir(), "bloom.db")
}

func run(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckinThenInsights(t *testing.T) {
	db := setupEnv(t)

	out, err := run(t, db, "", "checkin", "4", "a", "good", "day")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved mood 4")

	out, err = run(t, db, "", "insights")
	require.NoError(t, err)
	assert.Contains(t, out, "Streak:        1 days")
	assert.Contains(t, out, "Positive words: good")
	assert.Contains(t, out, "First Steps")
}

func TestCheckinRejectsBadMood(t *testing.T) {
	db := setupEnv(t)
	_, err := run(t, db, "", "checkin", "seven")
	require.Error(t, err)
	_, err = run(t, db, "", "checkin", "7")
	require.Error(t, err)
}

func TestCheckinShowsCrisisResources(t *testing.T) {
	db := setupEnv(t)
	out, err := run(t, db, "", "checkin", "1", "I", "want", "to", "end", "it", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "988")
	assert.Contains(t, out, "Saved mood 1")
}

func TestDailyIsStable(t *testing.T) {
	db := setupEnv(t)
	first, err := run(t, db, "", "daily")
	require.NoError(t, err)
	second, err := run(t, db, "", "daily", "affirmation")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = run(t, db, "", "daily", "weather")
	require.Error(t, err)
}

func TestPersonas(t *testing.T) {
	out, err := run(t, setupEnv(t), "", "personas")
	require.NoError(t, err)
	for _, d := range persona.All() {
		assert.Contains(t, out, d.DisplayName)
	}
}

func TestChat(t *testing.T) {
	db := setupEnv(t)
	out, err := run(t, db, "hello\n\nI'm feeling happy\n", "chat", "kai")
	require.NoError(t, err)

	kai, err := persona.Lookup(persona.Kai)
	require.NoError(t, err)
	assert.Contains(t, out, kai.Greeting)
	assert.Contains(t, out, kai.Response(persona.Neutral))
	assert.Contains(t, out, kai.Response(persona.Positive))

	_, err = run(t, db, "", "chat", "nobody")
	require.Error(t, err)
}

func TestGratitudeAndBest(t *testing.T) {
	db := setupEnv(t)
	out, err := run(t, db, "", "gratitude", "--small", "coffee")
	require.NoError(t, err)
	assert.Contains(t, out, "Gratitude saved.")

	_, err = run(t, db, "", "gratitude")
	require.Error(t, err)

	out, err = run(t, db, "", "best", "long", "walk")
	require.NoError(t, err)
	assert.Contains(t, out, "Today:     long walk")

	out, err = run(t, db, "", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 cached records")
}
