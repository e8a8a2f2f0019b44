// Package api exposes the story runtime to a presentation driver over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/cloud"
	"github.com/iksnae/novel-session/internal/timeline"
)

// Reconciler runs one sync attempt
type Reconciler interface {
	Reconcile(ctx context.Context, identity string) (cloud.Outcome, error)
}

// Server holds the handlers' dependencies
type Server struct {
	rt       *internal.Runtime
	sync     Reconciler
	measurer timeline.Measurer
	layout   timeline.Options
	autosave bool
}

// Option configures a Server
type Option func(*Server)

// WithReconciler enables the sync endpoint
func WithReconciler(r Reconciler) Option {
	return func(s *Server) { s.sync = r }
}

// WithMeasurer replaces the label measurer used for the timeline
func WithMeasurer(m timeline.Measurer) Option {
	return func(s *Server) { s.measurer = m }
}

// WithoutAutosave stops handlers from writing the local blobs after each
// change
func WithoutAutosave() Option {
	return func(s *Server) { s.autosave = false }
}

// NewServer creates a server over rt
func NewServer(rt *internal.Runtime, opts ...Option) *Server {
	layout := timeline.DefaultOptions()
	layout.Font.Size = rt.Config().FontSize
	s := &Server{
		rt:       rt,
		measurer: timeline.RuneWidthMeasurer{},
		layout:   layout,
		autosave: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/transcript", s.transcript)
		r.Post("/advance", s.advance)
		r.Post("/choose", s.choose)
		r.Post("/entries/{id}/delivered", s.delivered)
		r.Post("/cursor", s.cursor)
		r.Post("/jump", s.jump)
		r.Get("/timeline", s.timeline)
		r.Post("/sync", s.syncNow)
		r.Get("/collections", s.collections)
	})
	return r
}

// ListenAndServe serves the router on addr until ctx ends, then shuts
// down gracefully and writes a final save
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	internal.LogInfo("Driver API listening on %s", addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		s.save()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

const shutdownTimeout = 10 * time.Second

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internal.LogDebug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.LogWarn("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var syncErr *internal.SyncError
	switch {
	case errors.Is(err, internal.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, internal.ErrChapterLocked):
		return http.StatusConflict
	case errors.Is(err, internal.ErrNoNovel):
		return http.StatusServiceUnavailable
	case errors.As(err, &syncErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) save() {
	if !s.autosave {
		return
	}
	if err := s.rt.Save(); err != nil {
		internal.LogWarn("Autosave failed: %v", err)
	}
}
