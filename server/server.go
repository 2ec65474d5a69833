// Package server exposes a compiled workflow over HTTP.
//
// Routes:
//
//	POST   /runs            invoke the workflow and persist the audit record
//	GET    /runs            list persisted records, optionally ?workflow=name
//	GET    /runs/{id}       fetch one record
//	DELETE /runs/{id}       delete one record
//	GET    /graph           render the plan, ?format=mermaid|ascii|dot
//	GET    /metrics         Prometheus metrics
//	GET    /healthz         liveness probe
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/log"
	"github.com/suhasdasari/S4D5/store"
)

// Options configures a Server.
type Options struct {
	// Runnable is the workflow invoked by POST /runs. Required.
	Runnable *graph.Runnable

	// Store persists run records. Required.
	Store store.AuditStore

	// Gatherer backs GET /metrics. When nil the route is not mounted.
	Gatherer prometheus.Gatherer

	// DefaultGoal is used when a run request carries no goal.
	DefaultGoal string

	Logger log.Logger
	Now    func() time.Time
}

// Server serves one workflow and its audit records.
type Server struct {
	opts Options
}

// RunRequest is the body of POST /runs.
type RunRequest struct {
	Goal string `json:"goal"`
}

// New validates opts and creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Runnable == nil {
		return nil, errors.New("server: runnable is required")
	}
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.GetDefaultLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{opts: opts}, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.createRun)
		r.Get("/", s.listRuns)
		r.Get("/{id}", s.getRun)
		r.Delete("/{id}", s.deleteRun)
	})
	r.Get("/graph", s.drawGraph)

	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		goal = s.opts.DefaultGoal
	}
	if goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	createdAt := s.opts.Now()
	res, runErr := s.opts.Runnable.Invoke(r.Context(), map[string]any{"goal": goal})
	if runErr != nil {
		s.opts.Logger.Warn("run %s failed: %v", res.RunID, runErr)
	}

	rec := store.FromResult(s.opts.Runnable.Name(), res, runErr, createdAt)
	if err := s.opts.Store.Save(r.Context(), rec); err != nil {
		s.opts.Logger.Error("save run %s: %v", rec.RunID, err)
		writeError(w, http.StatusInternalServerError, "save run: %v", err)
		return
	}

	w.Header().Set("Location", "/runs/"+rec.RunID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	records, err := s.opts.Store.List(r.Context(), r.URL.Query().Get("workflow"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list runs: %v", err)
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.opts.Store.Load(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "%v", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "load run: %v", err)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	err := s.opts.Store.Delete(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "%v", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "delete run: %v", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) drawGraph(w http.ResponseWriter, r *http.Request) {
	exporter := s.opts.Runnable.Exporter()

	var out string
	switch format := r.URL.Query().Get("format"); format {
	case "", "mermaid":
		out = exporter.DrawMermaid()
	case "ascii":
		out = exporter.DrawASCII()
	case "dot":
		out = exporter.DrawDOT()
	default:
		writeError(w, http.StatusBadRequest, "unknown format %q", format)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.opts.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), s.opts.Now().Sub(start), middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
