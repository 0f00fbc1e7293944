package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/persona"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/voice"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type gatedResponder struct {
	release chan struct{}
}

func (r gatedResponder) Respond(ctx context.Context, _ persona.ID, text string) (string, error) {
	select {
	case <-r.release:
		return "echo: " + text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type failingResponder struct{}

func (failingResponder) Respond(context.Context, persona.ID, string) (string, error) {
	return "", errors.New("no reply")
}

type recordingSynth struct {
	mu    sync.Mutex
	spoke []voice.Utterance
}

func (s *recordingSynth) Speak(ctx context.Context, u voice.Utterance) error {
	s.mu.Lock()
	s.spoke = append(s.spoke, u)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSynth) utterances() []voice.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]voice.Utterance(nil), s.spoke...)
}

func newSession(t *testing.T, opt Options) *Session {
	t.Helper()
	if opt.Logger == nil {
		opt.Logger = quietLogger()
	}
	s, err := New(opt)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewStartsWithGreeting(t *testing.T) {
	s := newSession(t, Options{Persona: persona.Mira})
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderAgent, msgs[0].Sender)
	assert.Contains(t, msgs[0].Body, "Dr. Mira")
	assert.NotEmpty(t, msgs[0].ID)
	assert.Equal(t, Idle, s.State())

	_, err := New(Options{Persona: persona.ID(9)})
	assert.ErrorIs(t, err, persona.ErrUnknownPersona)
}

func TestSubmitAppendsInOrder(t *testing.T) {
	s := newSession(t, Options{Persona: persona.Asha})

	turn, err := s.Submit(context.Background(), "  I feel sad  ")
	require.NoError(t, err)
	assert.Equal(t, "I feel sad", turn.User.Body)
	d, _ := persona.Lookup(persona.Asha)
	assert.Equal(t, d.Response(persona.Negative), turn.Reply.Body)
	assert.False(t, turn.Verdict.Crisis)

	_, err = s.Submit(context.Background(), "I am grateful")
	require.NoError(t, err)

	var senders []model.Sender
	for _, m := range s.Messages() {
		senders = append(senders, m.Sender)
	}
	assert.Equal(t, []model.Sender{model.SenderAgent, model.SenderUser, model.SenderAgent, model.SenderUser, model.SenderAgent}, senders)
	assert.Equal(t, Idle, s.State())
}

func TestSubmitRejectsBlank(t *testing.T) {
	s := newSession(t, Options{Persona: persona.Kai})
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrBlankMessage)
	}
	assert.Len(t, s.Messages(), 1)
}

func TestCloseWhileAwaitingResponseDropsReply(t *testing.T) {
	r := gatedResponder{release: make(chan struct{})}
	s := newSession(t, Options{Persona: persona.Asha, Responder: r})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "still there?")
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State() == AwaitingResponse }, time.Second, 5*time.Millisecond)

	s.Close()
	close(r.release)
	assert.ErrorIs(t, <-done, ErrClosed)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
}

func TestSubmitRefusedWhileAwaitingResponse(t *testing.T) {
	r := gatedResponder{release: make(chan struct{})}
	s := newSession(t, Options{Persona: persona.Kai, Responder: r})

	done := make(chan *Turn)
	go func() {
		turn, err := s.Submit(context.Background(), "first")
		assert.NoError(t, err)
		done <- turn
	}()
	require.Eventually(t, func() bool { return s.State() == AwaitingResponse }, time.Second, 5*time.Millisecond)

	_, err := s.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(r.release)
	turn := <-done
	assert.Equal(t, "echo: first", turn.Reply.Body)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Body)
	assert.Equal(t, "echo: first", msgs[2].Body)
}

func TestCrisisAugmentsButDoesNotBlock(t *testing.T) {
	rec := &safety.Recorder{}
	s := newSession(t, Options{Persona: persona.Asha, Gate: safety.NewGate(rec, quietLogger())})

	turn, err := s.Submit(context.Background(), "I want to end it all")
	require.NoError(t, err)
	assert.True(t, turn.Verdict.Crisis)
	assert.NotEmpty(t, turn.Verdict.Resources)
	assert.NotEmpty(t, turn.Reply.Body)

	signals := rec.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, safety.SurfaceChat, signals[0].Surface)
	assert.Len(t, s.Messages(), 3)
}

func TestResponderFailureReturnsToIdle(t *testing.T) {
	s := newSession(t, Options{Persona: persona.Kai, Responder: failingResponder{}})
	_, err := s.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, Idle, s.State())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Body)
}

func TestResponseCancelledByContext(t *testing.T) {
	s := newSession(t, Options{Persona: persona.Kai, Responder: persona.CannedResponder{Delay: time.Hour}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Submit(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Idle, s.State())
}

func TestSubmitAfterClose(t *testing.T) {
	s := newSession(t, Options{Persona: persona.Kai})
	s.Close()
	_, err := s.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReplyIsSpokenWithPersonaVoice(t *testing.T) {
	synth := &recordingSynth{}
	s := newSession(t, Options{
		Persona: persona.Asha,
		Speaker: voice.NewSpeaker(voice.SpeakerOptions{Synthesizer: synth, Logger: quietLogger()}),
		Catalog: voice.NewStaticCatalog(
			model.VoiceDescriptor{Name: "Daniel", Lang: "en-GB"},
			model.VoiceDescriptor{Name: "Samantha", Lang: "en-US"},
		),
		Voice: true,
	})

	turn, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(synth.utterances()) == 1 }, time.Second, 5*time.Millisecond)

	u := synth.utterances()[0]
	assert.Equal(t, turn.Reply.Body, u.Text)
	require.NotNil(t, u.Voice)
	assert.Equal(t, "Samantha", u.Voice.Name)
	assert.Equal(t, 1.4, u.Pitch)
}

func TestVoiceDoesNotBlockNextSubmit(t *testing.T) {
	synth := &recordingSynth{}
	catalog := voice.NewStaticCatalog()
	s := newSession(t, Options{
		Persona:        persona.Kai,
		Speaker:        voice.NewSpeaker(voice.SpeakerOptions{Synthesizer: synth, Logger: quietLogger()}),
		Catalog:        catalog,
		CatalogTimeout: time.Hour,
		Voice:          true,
	})

	_, err := s.Submit(context.Background(), "one")
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), "two")
	require.NoError(t, err)

	catalog.Set(model.VoiceDescriptor{Name: "Daniel", Lang: "en-GB"})
	require.Eventually(t, func() bool { return len(synth.utterances()) >= 1 }, time.Second, 5*time.Millisecond)
	s.Close()

	// only the latest reply is played
	got := synth.utterances()
	require.Len(t, got, 1)
	assert.Equal(t, s.Messages()[4].Body, got[0].Text)
}

func TestVoiceDisabled(t *testing.T) {
	synth := &recordingSynth{}
	s := newSession(t, Options{
		Persona: persona.Kai,
		Speaker: voice.NewSpeaker(voice.SpeakerOptions{Synthesizer: synth, Logger: quietLogger()}),
		Catalog: voice.NewStaticCatalog(model.VoiceDescriptor{Name: "Daniel", Lang: "en-GB"}),
	})
	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)
	s.Close()
	assert.Empty(t, synth.utterances())
}
