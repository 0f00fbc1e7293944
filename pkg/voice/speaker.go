package voice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bloomwell/bloom/pkg/model"
)

// DefaultSpeechTimeout bounds one utterance.
const DefaultSpeechTimeout = 15 * time.Second

// Utterance is one piece of text to speak with a resolved voice.
type Utterance struct {
	Text   string
	Voice  *model.VoiceDescriptor
	Pitch  float64
	Rate   float64
	Volume float64
}

// NewUtterance applies a Selection to text.
func NewUtterance(text string, sel Selection) Utterance {
	return Utterance{Text: text, Voice: sel.Voice, Pitch: sel.Pitch, Rate: sel.Rate, Volume: sel.Volume}
}

// Synthesizer speaks an utterance and returns when playback ends. It must
// return promptly once ctx is done.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance) error
}

// Status is how a playback finished.
type Status string

const (
	StatusEnded     Status = "ended"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed-out"
	StatusCancelled Status = "cancelled"
)

// Outcome of one playback. A timeout is reported but counts as completion.
type Outcome struct {
	Status   Status
	Err      error
	Duration time.Duration
}

// Playback is a running or finished utterance.
type Playback struct {
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Done is closed once the playback has finished.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Cancel interrupts the playback.
func (p *Playback) Cancel() { p.cancel() }

// Wait blocks until the playback finishes or ctx is done.
func (p *Playback) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the result of a finished playback.
func (p *Playback) Outcome() Outcome {
	<-p.done
	return p.outcome
}

type SpeakerOptions struct {
	Synthesizer Synthesizer
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Speaker owns the shared synthesizer. Starting a playback cancels the one
// in flight and waits for it, so at most one utterance is ever active.
type Speaker struct {
	synth   Synthesizer
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	current *Playback
}

func NewSpeaker(opt SpeakerOptions) *Speaker {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultSpeechTimeout
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Speaker{synth: opt.Synthesizer, timeout: opt.Timeout, logger: opt.Logger}
}

// Play starts u in the background. The returned playback ends when the
// synthesizer returns, the timeout elapses, ctx is done, or a later Play or
// Stop interrupts it.
func (s *Speaker) Play(ctx context.Context, u Utterance) *Playback {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	p := &Playback{cancel: cancel, done: make(chan struct{})}
	if s.synth == nil {
		cancel()
		p.outcome = Outcome{Status: StatusFailed, Err: model.ErrVoiceUnavailable}
		close(p.done)
		return p
	}
	s.current = p

	go func() {
		defer close(p.done)
		defer cancel()
		start := time.Now()
		err := s.synth.Speak(pctx, u)
		p.outcome = classify(pctx, err)
		p.outcome.Duration = time.Since(start)
		switch p.outcome.Status {
		case StatusFailed:
			s.logger.Warn("speech failed", "err", err)
		case StatusTimedOut:
			s.logger.Info("speech timed out", "after", s.timeout)
		}
	}()
	return p
}

func classify(ctx context.Context, err error) Outcome {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Outcome{Status: StatusTimedOut}
	case ctx.Err() != nil:
		return Outcome{Status: StatusCancelled}
	case err != nil:
		return Outcome{Status: StatusFailed, Err: err}
	}
	return Outcome{Status: StatusEnded}
}

// Stop cancels the active playback, if any, and waits for it to finish.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	if s.current == nil {
		return
	}
	s.current.Cancel()
	<-s.current.done
	s.current = nil
}
