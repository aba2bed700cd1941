package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

// sessionState is returned by every mutation so callers can redraw at once
type sessionState struct {
	Session *models.Session `json:"session"`
	Results *scoring.Result `json:"results"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	if req.TTL < 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "ttl must not be negative (seconds)")
		return
	}

	session, err := s.manager.CreateSession(r.Context(), req)
	if err != nil {
		respondManagerError(w, err, "create session")
		return
	}

	slog.Debug("session created by client", "id", session.ID, "client", ClientName(r.Context()))

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.manager.ListSessions(r.Context())
	if err != nil {
		respondManagerError(w, err, "list sessions")
		return
	}

	status := models.SessionStatus(r.URL.Query().Get("status"))
	if status != "" {
		filtered := make([]*models.Session, 0, len(sessions))
		for _, sess := range sessions {
			if sess.Status == status {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.manager.GetSession(r.Context(), id)
	if err != nil {
		respondManagerError(w, err, "get session", "id", id)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.DeleteSession(r.Context(), id); err != nil {
		respondManagerError(w, err, "delete session", "id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleSetAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.SetAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Theme == "" || req.Indicator == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "theme, indicator and code are required")
		return
	}

	session, err := s.manager.SetAnswer(r.Context(), id, req)
	if err != nil {
		respondManagerError(w, err, "record answer", "id", id)
		return
	}

	s.respondState(w, r, session)
}

func (s *Server) handleSetWeights(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.SetWeightsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.manager.SetWeights(r.Context(), id, req.Weights)
	if err != nil {
		respondManagerError(w, err, "update weights", "id", id)
		return
	}

	s.respondState(w, r, session)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.manager.Reset(r.Context(), id)
	if err != nil {
		respondManagerError(w, err, "reset session", "id", id)
		return
	}

	s.respondState(w, r, session)
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.manager.Results(r.Context(), id)
	if err != nil {
		respondManagerError(w, err, "compute results", "id", id)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.SaveSnapshotRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	snap, err := s.manager.SaveSnapshot(r.Context(), id, req)
	if err != nil {
		respondManagerError(w, err, "save snapshot", "id", id)
		return
	}

	respondJSON(w, http.StatusCreated, snap)
}

func (s *Server) respondState(w http.ResponseWriter, r *http.Request, session *models.Session) {
	result, err := s.manager.Results(r.Context(), session.ID)
	if err != nil {
		respondManagerError(w, err, "compute results", "id", session.ID)
		return
	}
	respondJSON(w, http.StatusOK, sessionState{Session: session, Results: result})
}
