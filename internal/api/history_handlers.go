package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// History handlers: saved snapshots, comparison table and per-question details

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.manager.History(r.Context(), listFilters(r))
	if err != nil {
		respondManagerError(w, err, "list history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"total":     len(snapshots),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "snapshotId")

	snap, err := s.manager.GetSnapshot(r.Context(), id)
	if err != nil {
		respondManagerError(w, err, "get snapshot", "id", id)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.manager.Compare(r.Context(), listFilters(r))
	if err != nil {
		respondManagerError(w, err, "build comparison")
		return
	}

	respondJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	rows, err := s.manager.Details(r.Context(), listFilters(r))
	if err != nil {
		respondManagerError(w, err, "list details")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"total": len(rows),
	})
}
