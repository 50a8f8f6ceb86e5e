package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/nexusdag/nexus/pkg/engine"
	"github.com/nexusdag/nexus/pkg/graph"
	"github.com/nexusdag/nexus/pkg/retry"
	"github.com/nexusdag/nexus/pkg/types"
)

// retryConfigWire is the wire form of retry.Config: RetryOnTimeout and
// RetryOnAPIError are pointers so an absent JSON key falls back to
// retry.DefaultConfig instead of Go's zero value.
type retryConfigWire struct {
	RetryOnTimeout  *bool    `json:"retry_on_timeout,omitempty"`
	RetryOnAPIError *bool    `json:"retry_on_api_error,omitempty"`
	RetryPatterns   []string `json:"retry_patterns,omitempty"`
	NoRetryPatterns []string `json:"no_retry_patterns,omitempty"`
}

func (o retryConfigWire) toConfig() retry.Config {
	cfg := retry.DefaultConfig()
	if o.RetryOnTimeout != nil {
		cfg.RetryOnTimeout = *o.RetryOnTimeout
	}
	if o.RetryOnAPIError != nil {
		cfg.RetryOnAPIError = *o.RetryOnAPIError
	}
	if o.RetryPatterns != nil {
		cfg.RetryPatterns = o.RetryPatterns
	}
	if o.NoRetryPatterns != nil {
		cfg.NoRetryPatterns = o.NoRetryPatterns
	}
	return cfg
}

// engineOptions is the wire form of engine.Options: every field is a
// pointer so an absent JSON key falls back to engine.DefaultOptions
// instead of Go's zero value.
type engineOptions struct {
	IncludeOriginalPrompt *bool                    `json:"include_original_prompt,omitempty"`
	DefaultAggregation    *types.Aggregation       `json:"default_aggregation,omitempty"`
	CheckpointTrigger     *types.CheckpointTrigger `json:"checkpoint_trigger,omitempty"`
	RetryConfig           *retryConfigWire         `json:"retry_config,omitempty"`
}

func (o engineOptions) toOptions() engine.Options {
	opts := engine.DefaultOptions()
	if o.IncludeOriginalPrompt != nil {
		opts.IncludeOriginalPrompt = *o.IncludeOriginalPrompt
	}
	if o.DefaultAggregation != nil {
		opts.DefaultAggregation = *o.DefaultAggregation
	}
	if o.CheckpointTrigger != nil {
		opts.CheckpointTrigger = *o.CheckpointTrigger
	}
	if o.RetryConfig != nil {
		opts.RetryConfig = o.RetryConfig.toConfig()
	}
	return opts
}

func (s *Server) registerExecutionRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/execute", s.handleExecute)
	mux.HandleFunc("/api/v1/execute-orchestrated", s.handleExecuteOrchestrated)
	mux.HandleFunc("/api/v1/execute-enhanced", s.handleExecuteEnhanced)
	mux.HandleFunc("/api/v1/validate", s.handleValidateWorkflow)
	mux.HandleFunc("/api/v1/executions/", s.handleExecutionByID)
}

// handleExecute runs a workflow with the engine's default options.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type request struct {
		types.GraphPayload
		Prompt string `json:"prompt"`
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

	executionID, err := s.engine.Execute(r.Context(), req.WorkflowID, req.Nodes, req.Edges, req.Prompt)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to start execution", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{"execution_id": executionID}})
}

// handleExecuteEnhanced runs a workflow with caller-supplied Options.
func (s *Server) handleExecuteEnhanced(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type request struct {
		types.GraphPayload
		Prompt  string        `json:"prompt"`
		Options engineOptions `json:"options"`
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

	executionID, err := s.engine.ExecuteEnhanced(r.Context(), req.WorkflowID, req.Nodes, req.Edges, req.Prompt, req.Options.toOptions())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to start execution", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{"execution_id": executionID}})
}

// handleExecuteOrchestrated hands a natural-language prompt to the
// planner-driven orchestrator instead of a caller-supplied graph.
func (s *Server) handleExecuteOrchestrated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type request struct {
		WorkflowID string `json:"workflow_id"`
		Prompt     string `json:"prompt"`
		WorkingDir string `json:"working_dir"`
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

	executionID, err := s.engine.ExecuteOrchestrated(r.Context(), req.WorkflowID, req.Prompt, req.WorkingDir)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to start orchestrated execution", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{"execution_id": executionID}})
}

// handleValidateWorkflow checks a graph payload's JSON shape, then its
// structure (cycles, dangling edges), without executing it.
func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	schemaErrors, err := validateGraphPayloadJSON(body)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to run schema validation", err)
		return
	}
	if len(schemaErrors) > 0 {
		s.writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
			"valid":  false,
			"errors": schemaErrors,
		}})
		return
	}

	var payload types.GraphPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}

	g := graph.New(payload.Nodes, payload.Edges)
	if err := g.Validate(); err != nil {
		s.writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		}})
		return
	}

	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{"valid": true}})
}

// handleExecutionByID dispatches GET (status) and DELETE (cancel) on
// /api/v1/executions/{id}, plus GET on the nested
// /api/v1/executions/{id}/checkpoints.
func (s *Server) handleExecutionByID(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/checkpoints") {
		s.handleExecutionCheckpoints(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/executions/")
	id = strings.TrimSuffix(id, "/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "execution id is required", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		summary, ok := s.engine.Status(id)
		if !ok {
			s.writeError(w, http.StatusNotFound, "execution not found", nil)
			return
		}
		s.writeOK(w, summary)
	case http.MethodDelete:
		if !s.engine.Cancel(id) {
			s.writeError(w, http.StatusNotFound, "execution not found or already finished", nil)
			return
		}
		s.writeOK(w, map[string]string{"execution_id": id, "status": "cancelled"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
