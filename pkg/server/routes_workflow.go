package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// saveWorkflowRequest is the body of POST /api/v1/workflows.
type saveWorkflowRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data"`
}

func (s *Server) registerWorkflowRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/workflows", s.handleWorkflows)
	mux.HandleFunc("/api/v1/workflows/", s.handleWorkflowByID)
}

// handleWorkflows dispatches POST (save) and GET (list) on the
// collection endpoint.
func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSaveWorkflow(w, r)
	case http.MethodGet:
		s.handleListWorkflows(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWorkflowByID dispatches GET (load), PUT (update) and DELETE on
// /api/v1/workflows/{id}.
func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/workflows/")
	id = strings.TrimSuffix(id, "/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "workflow id is required", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleLoadWorkflow(w, r, id)
	case http.MethodPut:
		s.handleUpdateWorkflow(w, r, id)
	case http.MethodDelete:
		s.handleDeleteWorkflow(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	var req saveWorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}

	id, err := s.store.Save(req.Name, req.Description, req.Data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to save workflow", err)
		return
	}

	s.logger.WithField("id", id).WithField("name", req.Name).Info("workflow saved")
	s.writeJSON(w, http.StatusCreated, Response{Success: true, Data: map[string]string{"id": id}})
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request, id string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	var req saveWorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse request", err)
		return
	}

	if err := s.store.Update(id, req.Name, req.Description, req.Data); err != nil {
		s.writeError(w, http.StatusNotFound, "failed to update workflow", err)
		return
	}

	s.logger.WithField("id", id).Info("workflow updated")
	s.writeOK(w, map[string]string{"id": id})
}

func (s *Server) handleLoadWorkflow(w http.ResponseWriter, r *http.Request, id string) {
	wf, err := s.store.Load(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "failed to load workflow", err)
		return
	}
	s.writeOK(w, wf)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	s.writeOK(w, s.store.List())
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.Delete(id); err != nil {
		s.writeError(w, http.StatusNotFound, "failed to delete workflow", err)
		return
	}
	s.logger.WithField("id", id).Info("workflow deleted")
	s.writeOK(w, map[string]string{"id": id})
}
