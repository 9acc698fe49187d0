package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/contentcheck/internal/config"
	"github.com/dgallion1/contentcheck/internal/pipeline"
	"github.com/dgallion1/contentcheck/internal/report"
	"github.com/dgallion1/contentcheck/internal/rules"
	"github.com/go-chi/chi/v5"
)

const maxRunRequestBytes = 64 << 10

type submitRunRequest struct {
	Strict *bool `json:"strict"`
}

type ruleInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	NeedsIndex  bool   `json:"needs_index"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	selected, err := rules.Select(rules.Default(s.cfg), s.cfg.Rules, s.cfg.SkipRules)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]ruleInfo, 0, len(selected))
	for _, rule := range selected {
		out = append(out, ruleInfo{
			ID:          rule.ID(),
			Description: rule.Description(),
			NeedsIndex:  rule.NeedsIndex(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"rules": out})
}

// handleSubmitRun queues a run over the configured roots. The body is
// optional; {"strict": true} overrides the configured strictness.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRunRequestBytes)

	strict := s.cfg.Strict
	var req submitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Strict != nil {
		strict = *req.Strict
	}

	run, err := s.orchestrator.Submit(strict)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/runs/%s", run.ID),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"runs": s.orchestrator.ListRuns()})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

// handleRunReport renders a completed run's report in the requested format
// (?format=text|jsonl|yaml, default text).
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	snap := run.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		jsonError(w, "run failed: "+snap.Error, http.StatusConflict)
		return
	default:
		jsonError(w, "run has not finished", http.StatusConflict)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = config.ReportText
	}
	contentType := map[string]string{
		config.ReportText:  "text/plain; charset=utf-8",
		config.ReportJSONL: "application/x-ndjson",
		config.ReportYAML:  "application/yaml",
	}[format]
	if contentType == "" {
		jsonError(w, fmt.Sprintf("unknown report format %q", format), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if err := report.Render(w, snap.Report, format); err != nil {
		s.log.Error("render report", "run_id", snap.ID, "error", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
