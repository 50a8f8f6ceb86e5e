package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/nexusdag/nexus/pkg/checkpoint"
	"github.com/nexusdag/nexus/pkg/types"
)

func (s *Server) registerCheckpointRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/checkpoints", s.handleListCheckpoints)
	mux.HandleFunc("/api/v1/checkpoints/cleanup", s.handleCleanupCheckpoints)
	mux.HandleFunc("/api/v1/resume", s.handleResumeWorkflow)
}

// resumeOptions is the wire form of checkpoint.ResumeOptions: RetryFailed
// and RerunInterrupted are pointers so an absent JSON key falls back to
// checkpoint.DefaultResumeOptions instead of Go's zero value.
type resumeOptions struct {
	RetryFailed       *bool                  `json:"retry_failed,omitempty"`
	RerunInterrupted  *bool                  `json:"rerun_interrupted,omitempty"`
	SkipNodes         []string               `json:"skip_nodes,omitempty"`
	OverrideVariables map[string]interface{} `json:"override_variables,omitempty"`
}

func (o resumeOptions) toOptions() checkpoint.ResumeOptions {
	opts := checkpoint.DefaultResumeOptions()
	if o.RetryFailed != nil {
		opts.RetryFailed = *o.RetryFailed
	}
	if o.RerunInterrupted != nil {
		opts.RerunInterrupted = *o.RerunInterrupted
	}
	opts.SkipNodes = o.SkipNodes
	opts.OverrideVariables = o.OverrideVariables
	return opts
}

// handleResumeWorkflow loads the latest checkpoint for a caller-supplied
// execution ID and re-enters the engine's level loop at the checkpoint's
// current level, applying the caller's resume options to the
// checkpointed node states.
func (s *Server) handleResumeWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.checkpoints == nil {
		s.writeError(w, http.StatusServiceUnavailable, "checkpointing is disabled", nil)
		return
	}

	type request struct {
		types.GraphPayload
		ExecutionID string        `json:"execution_id"`
		Options     resumeOptions `json:"options"`
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}
	if req.ExecutionID == "" {
		s.writeError(w, http.StatusBadRequest, "execution_id is required", nil)
		return
	}

	cp, err := s.checkpoints.LoadLatest(req.ExecutionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "no checkpoint found for execution", err)
		return
	}

	executionID, err := s.engine.Resume(r.Context(), req.Nodes, req.Edges, cp, req.Options.toOptions())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to resume execution", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{"execution_id": executionID}})
}

// handleListCheckpoints lists every stored checkpoint, or those for one
// execution when ?execution_id= is set.
func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.checkpoints == nil {
		s.writeError(w, http.StatusServiceUnavailable, "checkpointing is disabled", nil)
		return
	}

	executionID := r.URL.Query().Get("execution_id")
	var (
		summaries interface{}
		err       error
	)
	if executionID != "" {
		summaries, err = s.checkpoints.ListForExecution(executionID)
	} else {
		summaries, err = s.checkpoints.List()
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list checkpoints", err)
		return
	}
	s.writeOK(w, summaries)
}

// handleCleanupCheckpoints deletes checkpoints beyond the configured
// per-execution retention, or a caller-supplied ?keep= override.
func (s *Server) handleCleanupCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.checkpoints == nil {
		s.writeError(w, http.StatusServiceUnavailable, "checkpointing is disabled", nil)
		return
	}

	keep := s.cfg.CheckpointKeepPerExec
	if raw := r.URL.Query().Get("keep"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid keep parameter", err)
			return
		}
		keep = parsed
	}

	removed, err := s.checkpoints.Cleanup(keep)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to clean up checkpoints", err)
		return
	}
	s.writeOK(w, map[string]int{"removed": removed})
}

// handleExecutionCheckpoints serves GET
// /api/v1/executions/{id}/checkpoints. handleExecutionByID delegates
// here when it sees the trailing "/checkpoints" segment, since both
// routes share the same "/api/v1/executions/" mux pattern.
func (s *Server) handleExecutionCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.checkpoints == nil {
		s.writeError(w, http.StatusServiceUnavailable, "checkpointing is disabled", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/executions/")
	id := strings.TrimSuffix(rest, "/checkpoints")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "execution id is required", nil)
		return
	}

	summaries, err := s.checkpoints.ListForExecution(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list checkpoints", err)
		return
	}
	s.writeOK(w, summaries)
}
