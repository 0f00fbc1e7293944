// Package app wires the journal, engines and chat services from Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bloomwell/bloom/pkg/api"
	"github.com/bloomwell/bloom/pkg/calendar"
	"github.com/bloomwell/bloom/pkg/checkin"
	"github.com/bloomwell/bloom/pkg/config"
	"github.com/bloomwell/bloom/pkg/engine/daily"
	"github.com/bloomwell/bloom/pkg/engine/insight"
	"github.com/bloomwell/bloom/pkg/persona"
	"github.com/bloomwell/bloom/pkg/practice"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/session"
	"github.com/bloomwell/bloom/pkg/store"
	"github.com/bloomwell/bloom/pkg/voice"
)

// App holds every long-lived component of a bloom process.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Calendar *calendar.Calendar
	Journal  *store.Journal
	Gate     *safety.Gate
	Insights *insight.Engine
	Daily    *daily.Selector
	Checkins *checkin.Service
	Practice *practice.Service
	Sessions *session.Registry
	Speaker  *voice.Speaker
	Catalog  voice.Catalog

	fileCatalog *voice.FileCatalog
	backend     io.Closer
}

// New opens the configured backend and builds the components on top of it.
// The caller must Close the App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return NewWithCalendar(ctx, cfg, calendar.New(nil, loc), logger)
}

// NewWithCalendar is New with an explicit calendar.
func NewWithCalendar(ctx context.Context, cfg config.Config, cal *calendar.Calendar, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Calendar: cal}

	kv, closer, err := store.OpenBackend(ctx, store.BackendConfig{
		Kind:        cfg.Backend,
		SQLitePath:  cfg.DBPath,
		RedisAddr:   cfg.RedisAddr,
		RedisPass:   cfg.RedisPass,
		RedisDB:     cfg.RedisDB,
		RedisPrefix: cfg.RedisPrefix,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	a.backend = closer

	if a.Journal, err = store.New(store.Options{
		Backend:        kv,
		Calendar:       cal,
		CacheRetention: cfg.CacheRetention,
		Logger:         logger,
	}); err != nil {
		return nil, a.abort(err)
	}

	a.Gate = safety.NewGate(nil, logger)
	if a.Insights, err = insight.New(insight.Options{
		Journal:    a.Journal,
		WindowDays: cfg.InsightWindow,
		WeeklyGoal: cfg.WeeklyGoal,
		Logger:     logger,
	}); err != nil {
		return nil, a.abort(err)
	}
	if a.Daily, err = daily.New(daily.Options{Cache: a.Journal, Calendar: cal, Pacing: cfg.ContentPacing, Logger: logger}); err != nil {
		return nil, a.abort(err)
	}
	if a.Checkins, err = checkin.New(checkin.Options{Journal: a.Journal, Gate: a.Gate, Logger: logger}); err != nil {
		return nil, a.abort(err)
	}
	if a.Practice, err = practice.New(practice.Options{Journal: a.Journal, Gate: a.Gate, Logger: logger}); err != nil {
		return nil, a.abort(err)
	}

	if cfg.VoiceCatalog != "" {
		if a.fileCatalog, err = voice.NewFileCatalog(cfg.VoiceCatalog, logger); err != nil {
			return nil, a.abort(err)
		}
		a.Catalog = a.fileCatalog
	} else {
		a.Catalog = voice.NewStaticCatalog()
	}
	a.Speaker = voice.NewSpeaker(voice.SpeakerOptions{
		Synthesizer: newSynthesizer(cfg.SpeechCommand, logger),
		Timeout:     cfg.SpeechTimeout,
		Logger:      logger,
	})

	a.Sessions = session.NewRegistry(session.RegistryOptions{
		Responder:      persona.CannedResponder{Delay: cfg.ResponseDelay, Jitter: cfg.ResponseJitter},
		Gate:           a.Gate,
		Speaker:        a.Speaker,
		Catalog:        a.Catalog,
		CatalogTimeout: cfg.CatalogTimeout,
		TTL:            cfg.SessionTTL,
		Logger:         logger,
	})
	return a, nil
}

// newSynthesizer returns nil when the configured command is missing, which
// makes every playback report the voice as unavailable.
func newSynthesizer(command string, logger *slog.Logger) voice.Synthesizer {
	if command == "" {
		return voice.NopSynthesizer{}
	}
	synth, err := voice.NewCommandSynthesizer(command)
	if err != nil {
		logger.Warn("speech disabled", "err", err)
		return nil
	}
	return synth
}

func (a *App) abort(err error) error {
	a.Close()
	return err
}

// Close ends open sessions and releases the backend.
func (a *App) Close() error {
	if a.Sessions != nil {
		a.Sessions.CloseAll()
	}
	if a.Speaker != nil {
		a.Speaker.Stop()
	}
	if a.backend != nil {
		return a.backend.Close()
	}
	return nil
}

// Handler returns the HTTP API.
func (a *App) Handler() (http.Handler, error) {
	srv, err := api.New(api.Options{
		Journal:        a.Journal,
		Insights:       a.Insights,
		Daily:          a.Daily,
		Checkins:       a.Checkins,
		Practice:       a.Practice,
		Sessions:       a.Sessions,
		Catalog:        a.Catalog,
		CatalogTimeout: a.Config.CatalogTimeout,
		Logger:         a.Logger,
	})
	if err != nil {
		return nil, err
	}
	return srv.Routes(), nil
}

// Serve runs the HTTP server and the background loops until ctx is done or
// one of them fails.
func (a *App) Serve(ctx context.Context) error {
	h, err := a.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: a.Config.ListenAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", a.Config.ListenAddr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		a.pruneLoop(gctx, a.Config.PruneEvery)
		return nil
	})
	g.Go(func() error {
		return a.Sessions.Run(gctx, time.Minute)
	})
	if a.fileCatalog != nil {
		g.Go(func() error { return a.fileCatalog.Watch(gctx) })
	}
	return g.Wait()
}

// pruneLoop drops expired daily caches on every tick.
func (a *App) pruneLoop(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 24 * time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := a.Journal.PruneCaches(ctx); err != nil {
				a.Logger.Error("cache pruning failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
