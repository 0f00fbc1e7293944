package safety

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCrisis(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I want to end it all", true},
		{"I had a great day", false},
		{"SUICIDE", true},
		{"Sometimes I think about Suicide prevention work", true},
		{"I feel like I can't go on", true},
		{"I feel like I can’t go on", true},
		{"everyone would be BETTER OFF DEAD without me", true},
		{"", false},
		{"the ending of the film was sad", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCrisis(tt.text))
		})
	}
}

func TestIsCrisisCaseInsensitiveForEveryPhrase(t *testing.T) {
	for _, p := range Phrases() {
		assert.True(t, IsCrisis(strings.ToUpper(p)), p)
		assert.True(t, IsCrisis("so... "+p+" ..."), p)
	}
}

func TestPhrasesIsACopy(t *testing.T) {
	p := Phrases()
	p[0] = "changed"
	assert.Equal(t, "kill myself", Phrases()[0])
}

func TestGateNotifiesOnMatch(t *testing.T) {
	rec := &Recorder{}
	g := NewGate(rec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	v := g.Screen(SurfaceChat, "hello there")
	assert.False(t, v.Crisis)
	assert.Empty(t, v.Resources)
	assert.Empty(t, rec.Signals())

	v = g.Screen(SurfaceMoodNote, "I want to die")
	assert.True(t, v.Crisis)
	assert.Len(t, v.Resources, 3)

	signals := rec.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, SurfaceMoodNote, signals[0].Surface)
	assert.Equal(t, "want to die", signals[0].Phrase)
	assert.False(t, signals[0].At.IsZero())
}

func TestGateWithoutNotifier(t *testing.T) {
	g := NewGate(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.True(t, g.Screen(SurfaceChat, "hurt myself").Crisis)
}

func TestNotifierFunc(t *testing.T) {
	var got Signal
	g := NewGate(NotifierFunc(func(s Signal) { got = s }), slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.Screen(SurfaceGratitude, "end my life")
	assert.Equal(t, SurfaceGratitude, got.Surface)
}
