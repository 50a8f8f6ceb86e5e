package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/nexusdag/nexus/pkg/workspace"
)

func (s *Server) registerProjectRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/projects", s.handleCreateProject)
}

// handleCreateProject bootstraps a new project workspace under
// workspace.DefaultRoot(), or a caller-supplied root.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req struct {
		Name string `json:"name"`
		Root string `json:"root,omitempty"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "project name is required", nil)
		return
	}

	root := req.Root
	if root == "" {
		root, err = workspace.DefaultRoot()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to resolve default project root", err)
			return
		}
	}

	info, err := workspace.Create(root, req.Name, time.Now())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create project workspace", err)
		return
	}

	s.logger.WithField("name", info.Name).WithField("path", info.Path).Info("project workspace created")
	s.writeJSON(w, http.StatusCreated, Response{Success: true, Data: info})
}
