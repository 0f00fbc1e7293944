package session

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bloomwell/bloom/pkg/persona"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/voice"
)

// DefaultTTL is how long an untouched session survives Reap.
const DefaultTTL = 30 * time.Minute

type RegistryOptions struct {
	Responder      Responder
	Gate           *safety.Gate
	Speaker        *voice.Speaker
	Catalog        voice.Catalog
	CatalogTimeout time.Duration
	TTL            time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

// Registry holds the open sessions of a server by id.
type Registry struct {
	opt    RegistryOptions
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(opt RegistryOptions) *Registry {
	if opt.TTL <= 0 {
		opt.TTL = DefaultTTL
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Registry{opt: opt, logger: opt.Logger, sessions: make(map[string]*Session)}
}

// Open starts a session with persona id.
func (r *Registry) Open(id persona.ID, voiceOn bool) (*Session, error) {
	s, err := New(Options{
		Persona:        id,
		Responder:      r.opt.Responder,
		Gate:           r.opt.Gate,
		Speaker:        r.opt.Speaker,
		Catalog:        r.opt.Catalog,
		CatalogTimeout: r.opt.CatalogTimeout,
		Voice:          voiceOn,
		Logger:         r.opt.Logger,
		Now:            r.opt.Now,
	})
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	r.logger.Info("session opened", "session", s.ID(), "persona", id)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close ends and forgets a session. It reports whether id was open.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap closes idle sessions untouched for longer than the TTL.
func (r *Registry) Reap() int {
	cutoff := r.opt.Now().Add(-r.opt.TTL)
	var stale []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.State() == Idle && s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("sessions reaped", "count", len(stale))
	}
	return len(stale)
}

// Run reaps on every tick until ctx is done, then closes everything.
func (r *Registry) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Reap()
		case <-ctx.Done():
			r.CloseAll()
			return nil
		}
	}
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
