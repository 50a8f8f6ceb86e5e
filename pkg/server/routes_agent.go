package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// spawnAgentRequest is the body of POST /api/v1/agents.
type spawnAgentRequest struct {
	NodeID     string `json:"node_id"`
	Role       string `json:"role"`
	WorkingDir string `json:"working_dir"`
	Prompt     string `json:"prompt"`
	Binary     string `json:"binary,omitempty"`
}

// spawnParams records what a spawn call needs to redo itself, so
// restartAgent can replay it. process.Supervisor has no Restart of its
// own: it is a one-shot Spawn plus Kill, so the server is the only
// place that can remember the original request.
type spawnParams struct {
	nodeID     string
	role       string
	workingDir string
	prompt     string
	binary     string
}

type restartTracker struct {
	mu     sync.Mutex
	params map[string]spawnParams
}

func newRestartTracker() *restartTracker {
	return &restartTracker{params: make(map[string]spawnParams)}
}

func (t *restartTracker) remember(agentID string, p spawnParams) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params[agentID] = p
}

func (t *restartTracker) forget(agentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.params, agentID)
}

func (t *restartTracker) get(agentID string) (spawnParams, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.params[agentID]
	return p, ok
}

func (s *Server) registerAgentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agents/", s.handleAgentByID)
}

// handleAgents dispatches POST (spawn) and GET (list).
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSpawnAgent(w, r)
	case http.MethodGet:
		s.writeOK(w, s.supervisor.List())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAgentByID dispatches on /api/v1/agents/{id}[/action]. Supported
// trailing actions: /send, /kill, /pause, /resume, /restart. With no
// trailing action, GET returns agent info and DELETE kills it.
func (s *Server) handleAgentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/agents/")
	rest = strings.TrimSuffix(rest, "/")
	parts := strings.SplitN(rest, "/", 2)
	agentID := parts[0]
	if agentID == "" {
		s.writeError(w, http.StatusBadRequest, "agent id is required", nil)
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleGetAgent(w, r, agentID)
	case action == "" && r.Method == http.MethodDelete:
		s.handleKillAgent(w, r, agentID)
	case action == "send" && r.Method == http.MethodPost:
		s.handleSendAgent(w, r, agentID)
	case action == "kill" && r.Method == http.MethodPost:
		s.handleKillAgent(w, r, agentID)
	case action == "pause" && r.Method == http.MethodPost:
		s.handlePauseAgent(w, r, agentID)
	case action == "resume" && r.Method == http.MethodPost:
		s.handleResumeAgent(w, r, agentID)
	case action == "restart" && r.Method == http.MethodPost:
		s.handleRestartAgent(w, r, agentID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSpawnAgent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req spawnAgentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}

	agentID := uuid.New().String()
	if _, err := s.supervisor.Spawn(r.Context(), agentID, req.NodeID, req.Role, req.WorkingDir, req.Prompt, req.Binary); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to spawn agent", err)
		return
	}
	s.restarts.remember(agentID, spawnParams{
		nodeID:     req.NodeID,
		role:       req.Role,
		workingDir: req.WorkingDir,
		prompt:     req.Prompt,
		binary:     req.Binary,
	})

	s.logger.WithField("agent_id", agentID).WithField("node_id", req.NodeID).Info("agent spawned")
	s.writeJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{"agent_id": agentID}})
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	info, ok := s.supervisor.Info(agentID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "agent not found", nil)
		return
	}
	s.writeOK(w, info)
}

func (s *Server) handleSendAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}

	if err := s.supervisor.Write(agentID, req.Input); err != nil {
		s.writeError(w, http.StatusNotFound, "failed to send input", err)
		return
	}
	s.writeOK(w, map[string]string{"agent_id": agentID})
}

func (s *Server) handleKillAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	if err := s.supervisor.Kill(agentID); err != nil {
		s.writeError(w, http.StatusNotFound, "failed to kill agent", err)
		return
	}
	s.restarts.forget(agentID)
	s.writeOK(w, map[string]string{"agent_id": agentID, "status": "killed"})
}

func (s *Server) handlePauseAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	if err := s.supervisor.Pause(agentID); err != nil {
		s.writeError(w, http.StatusNotFound, "failed to pause agent", err)
		return
	}
	s.writeOK(w, map[string]string{"agent_id": agentID, "status": "paused"})
}

func (s *Server) handleResumeAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	if err := s.supervisor.Resume(agentID); err != nil {
		s.writeError(w, http.StatusNotFound, "failed to resume agent", err)
		return
	}
	s.writeOK(w, map[string]string{"agent_id": agentID, "status": "running"})
}

// handleRestartAgent kills the existing process (if still alive) and
// respawns a fresh one with the same node/role/working dir/prompt/binary
// under a new agent ID, since a supervised agent process cannot be
// rewound in place.
func (s *Server) handleRestartAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	params, ok := s.restarts.get(agentID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no spawn record for agent, cannot restart", nil)
		return
	}

	_ = s.supervisor.Kill(agentID)
	s.restarts.forget(agentID)

	newID := uuid.New().String()
	if _, err := s.supervisor.Spawn(r.Context(), newID, params.nodeID, params.role, params.workingDir, params.prompt, params.binary); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to restart agent", err)
		return
	}
	s.restarts.remember(newID, params)

	s.logger.WithField("old_agent_id", agentID).WithField("new_agent_id", newID).Info("agent restarted")
	s.writeJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{"agent_id": newID}})
}
