package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrWong99/cutmark/internal/ingest"
	"github.com/MrWong99/cutmark/pkg/words"
)

// alignRequest is the body of POST /v1/align and POST /v1/jobs.
type alignRequest struct {
	Script string        `json:"script"`
	Words  []*words.Word `json:"words"`
}

// repeatsRequest is the body of POST /v1/repeats.
type repeatsRequest struct {
	Words []*words.Word `json:"words"`
}

// repeatsResponse is the outcome of a repeat scan.
type repeatsResponse struct {
	Words []*words.Word `json:"words"`
	Count int           `json:"count"`
}

// ingestRequest is the body of POST /v1/ingest. A non-null filler_words list
// replaces the configured one for this request.
type ingestRequest struct {
	Segments    []ingest.Segment `json:"segments"`
	Silences    []ingest.Silence `json:"silences"`
	FillerWords []string         `json:"filler_words"`
}

// ingestResponse carries the assembled word list.
type ingestResponse struct {
	Words []*words.Word `json:"words"`
}

// jobCreatedResponse acknowledges an accepted job.
type jobCreatedResponse struct {
	ID string `json:"id"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	var req alignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Script == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("script is required"))
		return
	}

	res := s.analyzer().Compare(r.Context(), req.Script, req.Words)
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRepeats(w http.ResponseWriter, r *http.Request) {
	var req repeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	count := s.analyzer().Standalone(r.Context(), req.Words)
	s.writeJSON(w, http.StatusOK, repeatsResponse{Words: req.Words, Count: count})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	cfg := s.ingestCfg()
	if req.FillerWords != nil {
		cfg.FillerWords = req.FillerWords
	}

	start := time.Now()
	builder := ingest.NewBuilder(cfg.Options()...)
	ws := builder.Build(&ingest.Transcription{Segments: req.Segments}, req.Silences)

	s.metrics.IngestDuration.Record(r.Context(), time.Since(start).Seconds())
	for typ, n := range recordCounts(ws) {
		s.metrics.RecordIngestedRecords(r.Context(), string(typ), n)
	}

	s.writeJSON(w, http.StatusOK, ingestResponse{Words: ws})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req alignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Script == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("script is required"))
		return
	}

	id, err := s.jobs.Submit(req.Script, req.Words)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, jobCreatedResponse{ID: id})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.jobs.Status(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// recordCounts tallies the assembled stream by record type.
func recordCounts(ws []*words.Word) map[words.Type]int64 {
	counts := make(map[words.Type]int64)
	for _, w := range ws {
		counts[w.Type]++
	}
	return counts
}

// writeJSON writes v as the JSON response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", "err", err)
	}
}

// writeError writes err as a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
