package server

import "net/http"

func (s *Server) registerHistoryRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/history", s.handleListHistory)
	mux.HandleFunc("/api/v1/history/", s.handleGetHistory)
}

// handleListHistory lists every recorded terminal execution, most
// recent first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history is disabled", nil)
		return
	}

	records, err := s.history.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list history", err)
		return
	}
	s.writeOK(w, records)
}

// handleGetHistory serves GET /api/v1/history/{execution_id}.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history is disabled", nil)
		return
	}

	id := r.URL.Path[len("/api/v1/history/"):]
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "execution id is required", nil)
		return
	}

	rec, err := s.history.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "history record not found", err)
		return
	}
	s.writeOK(w, rec)
}
