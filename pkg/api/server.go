// Package api exposes the journal, insights, practices and chat sessions
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bloomwell/bloom/pkg/calendar"
	"github.com/bloomwell/bloom/pkg/checkin"
	"github.com/bloomwell/bloom/pkg/engine/daily"
	"github.com/bloomwell/bloom/pkg/engine/insight"
	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/persona"
	"github.com/bloomwell/bloom/pkg/practice"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/session"
	"github.com/bloomwell/bloom/pkg/store"
	"github.com/bloomwell/bloom/pkg/voice"
)

type Options struct {
	Journal        *store.Journal
	Insights       *insight.Engine
	Daily          *daily.Selector
	Checkins       *checkin.Service
	Practice       *practice.Service
	Sessions       *session.Registry
	Catalog        voice.Catalog
	CatalogTimeout time.Duration
	Logger         *slog.Logger
}

type Server struct {
	journal        *store.Journal
	insights       *insight.Engine
	daily          *daily.Selector
	checkins       *checkin.Service
	practice       *practice.Service
	sessions       *session.Registry
	catalog        voice.Catalog
	catalogTimeout time.Duration
	logger         *slog.Logger
}

func New(opt Options) (*Server, error) {
	switch {
	case opt.Journal == nil:
		return nil, errors.New("api: journal is required")
	case opt.Insights == nil, opt.Daily == nil, opt.Checkins == nil, opt.Practice == nil:
		return nil, errors.New("api: services are required")
	case opt.Sessions == nil:
		return nil, errors.New("api: session registry is required")
	}
	if opt.Catalog == nil {
		opt.Catalog = voice.NewStaticCatalog()
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Server{
		journal:        opt.Journal,
		insights:       opt.Insights,
		daily:          opt.Daily,
		checkins:       opt.Checkins,
		practice:       opt.Practice,
		sessions:       opt.Sessions,
		catalog:        opt.Catalog,
		catalogTimeout: opt.CatalogTimeout,
		logger:         opt.Logger,
	}, nil
}

// Routes returns the router with the standard middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/personas", s.listPersonas)
	r.Get("/crisis/resources", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, safety.Resources())
	})

	r.Route("/checkins", func(r chi.Router) {
		r.Post("/", s.createCheckin)
		r.Get("/", s.listCheckins)
		r.Get("/{date}", s.getCheckin)
	})
	r.Get("/insights", s.getInsights)
	r.Get("/daily/{category}", s.getDaily)

	r.Route("/practice", func(r chi.Router) {
		r.Post("/gratitude", s.saveGratitude)
		r.Post("/best-thing", s.saveBestThing)
		r.Get("/best-thing", s.getBestThings)
		r.Post("/{exercise}/complete", s.completeExercise)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.openSession)
		r.Get("/{id}", s.getSession)
		r.Post("/{id}/messages", s.postMessage)
		r.Delete("/{id}", s.closeSession)
	})
	r.Get("/voices/resolve", s.resolveVoice)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidMood),
		errors.Is(err, model.ErrNoteTooLong),
		errors.Is(err, model.ErrInvalidDateKey),
		errors.Is(err, model.ErrWindowTooLarge),
		errors.Is(err, session.ErrBlankMessage),
		errors.Is(err, practice.ErrEmptyGratitude),
		errors.Is(err, practice.ErrEmptyBestThing),
		errors.Is(err, persona.ErrUnknownPersona),
		errors.Is(err, daily.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, practice.ErrUnknownExercise):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (s *Server) listPersonas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, persona.All())
}

type checkinRequest struct {
	Mood int    `json:"mood"`
	Note string `json:"note"`
}

func (s *Server) createCheckin(w http.ResponseWriter, r *http.Request) {
	var in checkinRequest
	if !decode(w, r, &in) {
		return
	}
	res, err := s.checkins.Submit(r.Context(), in.Mood, in.Note)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listCheckins(w http.ResponseWriter, r *http.Request) {
	days, err := s.checkins.History(r.Context(), queryInt(r, "days", 7))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) getCheckin(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !calendar.Valid(date) {
		writeError(w, http.StatusBadRequest, model.ErrInvalidDateKey)
		return
	}
	entry, ok, err := s.checkins.Get(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no check-in for "+date))
		return
	}
	writeJSON(w, http.StatusOK, model.DatedEntry{Date: date, Entry: &entry})
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	snap, err := s.insights.Compute(r.Context(), queryInt(r, "window", 0))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type dailyResponse struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Text     string `json:"text"`
}

func (s *Server) getDaily(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	list, ok := daily.Builtin(category)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown daily category "+category))
		return
	}
	text, err := s.daily.SelectForToday(r.Context(), category, list)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyResponse{Category: category, Date: s.journal.Calendar().TodayKey(), Text: text})
}

type verdictResponse struct {
	Verdict safety.Verdict `json:"verdict"`
}

func (s *Server) saveGratitude(w http.ResponseWriter, r *http.Request) {
	var in practice.Gratitude
	if !decode(w, r, &in) {
		return
	}
	v, err := s.practice.SaveGratitude(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, verdictResponse{Verdict: v})
}

type bestThingRequest struct {
	Text string `json:"text"`
}

type bestThingsResponse struct {
	Today     string `json:"today"`
	Yesterday string `json:"yesterday"`
}

func (s *Server) saveBestThing(w http.ResponseWriter, r *http.Request) {
	var in bestThingRequest
	if !decode(w, r, &in) {
		return
	}
	v, err := s.practice.SaveBestThing(r.Context(), in.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, verdictResponse{Verdict: v})
}

func (s *Server) getBestThings(w http.ResponseWriter, r *http.Request) {
	today, yesterday, err := s.practice.BestThings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bestThingsResponse{Today: today, Yesterday: yesterday})
}

func (s *Server) completeExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := practice.ParseExercise(chi.URLParam(r, "exercise"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.practice.Complete(r.Context(), ex); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type openSessionRequest struct {
	Persona string `json:"persona"`
	Voice   bool   `json:"voice"`
}

type sessionResponse struct {
	ID       string                      `json:"id"`
	Persona  persona.Descriptor          `json:"persona"`
	State    string                      `json:"state"`
	Messages []model.ConversationMessage `json:"messages"`
}

func sessionView(sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:       sess.ID(),
		Persona:  sess.Persona(),
		State:    sess.State().String(),
		Messages: sess.Messages(),
	}
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var in openSessionRequest
	if !decode(w, r, &in) {
		return
	}
	id, err := persona.ParseID(in.Persona)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.sessions.Open(id, in.Voice)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(sess))
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
	}
	return sess, ok
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.lookupSession(w, r); ok {
		writeJSON(w, http.StatusOK, sessionView(sess))
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var in messageRequest
	if !decode(w, r, &in) {
		return
	}
	turn, err := sess.Submit(r.Context(), in.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Close(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resolveVoice(w http.ResponseWriter, r *http.Request) {
	id, err := persona.ParseID(r.URL.Query().Get("persona"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	voices := voice.AwaitCatalog(r.Context(), s.catalog, s.catalogTimeout)
	sel, err := voice.Resolve(id, voices)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}
