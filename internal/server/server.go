// Package server exposes the stitch service over HTTP. Jobs are
// accepted on the API, run on the dispatcher pool and tracked in the
// status store; assembled documents land in the spool directory so the
// server can hand them back later.
package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstitch/internal/config"
	"github.com/local/pdfstitch/internal/dispatcher"
	"github.com/local/pdfstitch/internal/fetch"
	"github.com/local/pdfstitch/internal/metrics"
	"github.com/local/pdfstitch/internal/statuscheck"
	"github.com/local/pdfstitch/internal/store"
)

// Dependencies collects the collaborators the server needs.
type Dependencies struct {
	Store    store.StatusStore
	Pool     *dispatcher.Pool
	Resolver *fetch.Resolver
	Checker  *statuscheck.Checker
}

// Server handles the HTTP API.
type Server struct {
	cfg  config.Config
	deps Dependencies
	tpl  *template.Template
}

// New creates a Server and its spool directory.
func New(cfg config.Config, deps Dependencies) (*Server, error) {
	if err := os.MkdirAll(cfg.Server.SpoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool dir %s: %w", cfg.Server.SpoolDir, err)
	}
	return &Server{
		cfg:  cfg,
		deps: deps,
		tpl:  template.Must(template.New("index").Parse(indexHTML)),
	}, nil
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stitch", s.handleStitch)
	mux.HandleFunc("/api/jobs", s.handleRecent)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	sum := s.deps.Checker.Summary(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !sum.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(sum)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to encode response")
	}
}
