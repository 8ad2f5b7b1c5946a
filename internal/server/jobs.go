package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstitch/internal/dispatcher"
	"github.com/local/pdfstitch/internal/fetch"
	"github.com/local/pdfstitch/internal/filetype"
	"github.com/local/pdfstitch/internal/imagepdf"
	"github.com/local/pdfstitch/internal/metrics"
	"github.com/local/pdfstitch/internal/pdfops"
	"github.com/local/pdfstitch/internal/preview"
	"github.com/local/pdfstitch/internal/stitcher"
	"github.com/local/pdfstitch/internal/store"
)

type stitchRequest struct {
	Inputs    []string `json:"inputs"`
	Output    string   `json:"output,omitempty"`
	PageSize  string   `json:"page_size,omitempty"`
	Landscape bool     `json:"landscape,omitempty"`
	Strict    bool     `json:"strict,omitempty"`
}

type stitchResponse struct {
	JobID   string `json:"job_id"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleStitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req stitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "missing inputs", http.StatusBadRequest)
		return
	}
	if req.PageSize == "" {
		req.PageSize = s.cfg.Stitch.PageSize
	}
	if _, err := imagepdf.SizeByName(req.PageSize); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Landscape = req.Landscape || s.cfg.Stitch.Landscape
	req.Strict = req.Strict || s.cfg.Stitch.Strict

	jobID := uuid.NewString()
	start := time.Now()
	st := store.Status{
		JobID:   jobID,
		State:   store.StateQueued,
		Message: "queued",
		Inputs:  len(req.Inputs),
		Start:   &start,
	}
	if err := s.deps.Store.Set(r.Context(), jobID, st); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("failed to persist job status")
		http.Error(w, "status store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !s.deps.Pool.Enqueue(dispatcher.Job{ID: jobID, Run: s.runJob(jobID, start, req)}) {
		st.State = store.StateError
		st.Error = "backlog full"
		_ = s.deps.Store.Set(r.Context(), jobID, st)
		http.Error(w, "backlog full", http.StatusServiceUnavailable)
		return
	}
	log.Info().Str("job_id", jobID).Int("inputs", len(req.Inputs)).Msg("stitch job accepted")
	writeJSON(w, http.StatusAccepted, stitchResponse{JobID: jobID, State: store.StateQueued, Message: "job accepted"})
}

// runJob builds the closure executed on the dispatcher pool. The
// closure owns the full job lifecycle including its terminal status, so
// a panic inside the stitch is converted to an error state here rather
// than relying on the pool's logging backstop.
func (s *Server) runJob(jobID string, start time.Time, req stitchRequest) func() {
	return func() {
		ctx := context.Background()
		metrics.JobStarted()
		defer metrics.JobFinished()
		defer func() {
			if rec := recover(); rec != nil {
				s.finishJob(ctx, jobID, start, len(req.Inputs), 0, "", fmt.Errorf("panic: %v", rec))
			}
		}()

		running := store.Status{JobID: jobID, State: store.StateRunning, Message: "stitching", Inputs: len(req.Inputs), Start: &start}
		_ = s.deps.Store.Set(ctx, jobID, running)

		output, pages, err := s.stitchJob(ctx, jobID, req)
		s.finishJob(ctx, jobID, start, len(req.Inputs), pages, output, err)
	}
}

// stitchJob resolves the inputs, assembles them into the spool and
// pushes the result to the requested output ref. It returns the ref the
// caller should read the result from.
func (s *Server) stitchJob(ctx context.Context, jobID string, req stitchRequest) (string, int, error) {
	size, err := imagepdf.SizeByName(req.PageSize)
	if err != nil {
		return "", 0, err
	}
	if req.Landscape {
		size = size.Landscape()
	}

	asm := stitcher.New(stitcher.Options{Page: size, TempDir: s.cfg.Stitch.TempDir})
	defer asm.Close()

	for _, ref := range req.Inputs {
		local, cleanup, err := s.deps.Resolver.Resolve(ctx, ref)
		if err != nil {
			return "", 0, fmt.Errorf("input %s: %w", ref, err)
		}
		defer cleanup()
		if req.Strict {
			if err := filetype.VerifyContent(local); err != nil {
				return "", 0, fmt.Errorf("input %s: %w", ref, err)
			}
		}
		if err := asm.AddFile(local); err != nil {
			return "", 0, fmt.Errorf("input %s: %w", ref, err)
		}
	}
	for _, in := range asm.Files() {
		metrics.IncInput(in.Kind.String())
	}

	spoolPath := s.spoolPath(jobID)
	if _, err := asm.Stitch(spoolPath); err != nil {
		return "", 0, err
	}
	pages, err := pdfops.PageCount(spoolPath)
	if err != nil {
		return "", 0, err
	}

	if req.Output == "" {
		return spoolPath, pages, nil
	}
	if strings.HasPrefix(req.Output, "s3://") {
		if err := fetch.Upload(ctx, req.Output, spoolPath); err != nil {
			return "", pages, err
		}
		return req.Output, pages, nil
	}
	if err := copyFile(spoolPath, req.Output); err != nil {
		return "", pages, err
	}
	return req.Output, pages, nil
}

func (s *Server) finishJob(ctx context.Context, jobID string, start time.Time, inputs, pages int, output string, err error) {
	end := time.Now()
	st := store.Status{JobID: jobID, Inputs: inputs, Start: &start, End: &end}
	if err != nil {
		st.State = store.StateError
		st.Message = "stitch failed"
		st.Error = err.Error()
		metrics.ObserveJob("error", inputs, end.Sub(start))
		log.Error().Err(err).Str("job_id", jobID).Msg("stitch job failed")
	} else {
		st.State = store.StateDone
		st.Message = "completed"
		st.Pages = pages
		st.Output = output
		metrics.ObserveJob("success", inputs, end.Sub(start))
		metrics.AddPagesOutput(pages)
		log.Info().Str("job_id", jobID).Int("pages", pages).Str("output", output).Msg("stitch job done")
		sweepSpool(s.cfg.Server.SpoolDir, s.cfg.Server.StatusTTL)
	}
	if serr := s.deps.Store.Set(ctx, jobID, st); serr != nil {
		log.Error().Err(serr).Str("job_id", jobID).Msg("failed to persist job status")
	}
}

// handleJob fans /api/jobs/{id}, /api/jobs/{id}/result and
// /api/jobs/{id}/preview out to their handlers.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.handleRecent(w, r)
		return
	}
	switch sub {
	case "":
		s.handleStatus(w, r, id)
	case "result":
		s.handleResult(w, r, id)
	case "preview":
		s.handlePreview(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	st, ok, err := s.deps.Store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// resultPath gates access to the spool: the job must exist and be done.
// Unknown ids never reach the filesystem.
func (s *Server) resultPath(w http.ResponseWriter, r *http.Request, id string) (string, bool) {
	st, ok, err := s.deps.Store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
		return "", false
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return "", false
	}
	if st.State == store.StateError {
		http.Error(w, "job failed: "+st.Error, http.StatusConflict)
		return "", false
	}
	if !st.Terminal() {
		http.Error(w, "not ready", http.StatusConflict)
		return "", false
	}
	return s.spoolPath(id), true
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request, id string) {
	path, ok := s.resultPath(w, r, id)
	if !ok {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "result not available", http.StatusNotFound)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", id))
	_, _ = io.Copy(w, f)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, id string) {
	path, ok := s.resultPath(w, r, id)
	if !ok {
		return
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = n
	}
	img, err := preview.Page(path, page, preview.Options{DPI: s.cfg.Preview.DPI, Quality: s.cfg.Preview.Quality})
	if err != nil {
		log.Error().Err(err).Str("job_id", id).Msg("preview render failed")
		http.Error(w, "preview failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(img)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	jobs, err := s.deps.Store.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) spoolPath(jobID string) string {
	return filepath.Join(s.cfg.Server.SpoolDir, jobID+".pdf")
}

func copyFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}
