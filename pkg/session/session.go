// Package session runs one chat between the user and a persona.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/persona"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/voice"
)

var (
	ErrBlankMessage = errors.New("message is blank")
	ErrBusy         = errors.New("session is awaiting a response")
	ErrClosed       = errors.New("session is closed")
)

// State of a session. Submit moves Idle to AwaitingResponse and back.
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting-response"
	}
	return "idle"
}

// Responder produces the persona's reply to a user message.
type Responder interface {
	Respond(ctx context.Context, id persona.ID, text string) (string, error)
}

// Options configures a Session. Speaker and Catalog are only needed for
// voice playback.
type Options struct {
	Persona        persona.ID
	Responder      Responder
	Gate           *safety.Gate
	Speaker        *voice.Speaker
	Catalog        voice.Catalog
	CatalogTimeout time.Duration
	Voice          bool
	Logger         *slog.Logger
	Now            func() time.Time
}

// Turn is the result of one accepted submission.
type Turn struct {
	User    model.ConversationMessage `json:"user"`
	Reply   model.ConversationMessage `json:"reply"`
	Verdict safety.Verdict            `json:"verdict"`
}

// Session is one open chat. Messages are kept in submission order and a
// submission is refused while the previous one awaits its reply.
type Session struct {
	id             string
	persona        persona.Descriptor
	responder      Responder
	gate           *safety.Gate
	speaker        *voice.Speaker
	catalog        voice.Catalog
	catalogTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time

	// ctx scopes voice playback to the session's lifetime.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	state      State
	closed     bool
	voiceOn    bool
	messages   []model.ConversationMessage
	lastActive time.Time
	speakSeq   uint64
}

// New opens a session that starts with the persona's greeting.
func New(opt Options) (*Session, error) {
	d, err := persona.Lookup(opt.Persona)
	if err != nil {
		return nil, err
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Responder == nil {
		opt.Responder = persona.CannedResponder{}
	}
	if opt.Gate == nil {
		opt.Gate = safety.NewGate(nil, opt.Logger)
	}
	if opt.Catalog == nil {
		opt.Catalog = voice.NewStaticCatalog()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:             uuid.NewString(),
		persona:        d,
		responder:      opt.Responder,
		gate:           opt.Gate,
		speaker:        opt.Speaker,
		catalog:        opt.Catalog,
		catalogTimeout: opt.CatalogTimeout,
		now:            opt.Now,
		ctx:            ctx,
		cancel:         cancel,
		voiceOn:        opt.Voice,
	}
	s.logger = opt.Logger.With("session", s.id, "persona", d.Slug)
	s.lastActive = s.now()
	s.messages = append(s.messages, s.message(d.Greeting, model.SenderAgent))
	return s, nil
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) Persona() persona.Descriptor { return s.persona }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConversationMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetVoice turns playback of replies on or off.
func (s *Session) SetVoice(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceOn = on
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) message(body string, sender model.Sender) model.ConversationMessage {
	return model.ConversationMessage{ID: uuid.NewString(), Body: body, Sender: sender, Timestamp: s.now()}
}

// Submit sends text to the persona and waits for the reply. Crisis
// language is reported through the gate and the Turn's Verdict; it does
// not stop the message. If the responder fails the user message stays in
// the transcript and the session returns to Idle.
func (s *Session) Submit(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrBlankMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.state != Idle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	verdict := s.gate.Screen(safety.SurfaceChat, text)
	user := s.message(text, model.SenderUser)
	s.messages = append(s.messages, user)
	s.state = AwaitingResponse
	s.lastActive = s.now()
	s.mu.Unlock()

	reply, err := s.responder.Respond(ctx, s.persona.ID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.lastActive = s.now()
	if err != nil {
		s.logger.Warn("response failed", "err", err)
		return nil, fmt.Errorf("respond: %w", err)
	}
	if s.closed {
		return nil, ErrClosed
	}
	agent := s.message(reply, model.SenderAgent)
	s.messages = append(s.messages, agent)
	if s.voiceOn && s.speaker != nil {
		s.speakLocked(reply)
	}
	return &Turn{User: user, Reply: agent, Verdict: verdict}, nil
}

// speakLocked plays text in the background. Only the latest reply is
// played; an older one still waiting on the catalog is dropped.
func (s *Session) speakLocked(text string) {
	s.speakSeq++
	seq := s.speakSeq
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		voices := voice.AwaitCatalog(s.ctx, s.catalog, s.catalogTimeout)
		sel, err := voice.Resolve(s.persona.ID, voices)
		if err != nil {
			s.logger.Warn("voice resolution failed", "err", err)
			return
		}
		s.mu.Lock()
		stale := seq != s.speakSeq || s.closed
		s.mu.Unlock()
		if stale {
			return
		}
		out := s.speaker.Play(s.ctx, voice.NewUtterance(text, sel)).Outcome()
		s.logger.Debug("reply spoken", "status", out.Status, "source", sel.Source)
	}()
}

// Close ends the session and interrupts its playback.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}
