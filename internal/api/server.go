package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/flagkeep/flagkeep/internal/audit"
	"github.com/flagkeep/flagkeep/internal/snapshot"
	"github.com/flagkeep/flagkeep/internal/store"
	"github.com/flagkeep/flagkeep/internal/telemetry"
	"github.com/flagkeep/flagkeep/internal/webhook"
)

const requestTimeout = 5 * time.Second

// Options carries the optional collaborators of a Server. Zero values
// disable the corresponding feature.
type Options struct {
	AppEnv         string              // "dev" exposes error detail in 500 responses
	RateLimitPerIP int                 // requests per minute per client IP; 0 disables
	Audit          *audit.Service      // mutation audit trail
	Hooks          *webhook.Dispatcher // flag-change webhooks
}

// Server exposes the flag repository over HTTP.
type Server struct {
	store  store.Store
	snap   *snapshot.Holder
	logger zerolog.Logger
	opts   Options
}

// NewServer creates an API server around the given store.
func NewServer(st store.Store, logger zerolog.Logger, opts Options) *Server {
	return &Server{
		store:  st,
		snap:   snapshot.NewHolder(),
		logger: logger,
		opts:   opts,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(telemetry.Middleware)
	r.Use(securityHeaders)
	if s.opts.RateLimitPerIP > 0 {
		r.Use(httprate.LimitByIP(s.opts.RateLimitPerIP, time.Minute))
	}
	r.Use(middleware.Timeout(requestTimeout))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReady)

	r.Route("/feature-flags", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/enabled", s.handleListEnabled)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/{key}", s.handleGet)
		r.Put("/{key}", s.handleUpdate)
		r.Patch("/{key}/toggle", s.handleToggle)
		r.Delete("/{key}", s.handleDelete)
	})

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSnapshot serves the atomic all-flags snapshot with a weak ETag
// so unchanged polls answer 304.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.snap.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, snap)
}

// RebuildSnapshot loads all flags and swaps the atomic snapshot.
func (s *Server) RebuildSnapshot(ctx context.Context) error {
	rows, err := s.store.List(ctx, "")
	if err != nil {
		return err
	}
	snap := snapshot.BuildFromFlags(rows)
	s.snap.Update(snap)
	telemetry.SnapshotFlags.Set(float64(len(snap.Flags)))
	return nil
}
