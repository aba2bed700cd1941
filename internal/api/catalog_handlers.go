package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Catalog handlers: read-only browsing of themes, indicators and levels

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.catalogLoader.Catalog()
	if cat == nil {
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog not loaded")
		return
	}
	respondJSON(w, http.StatusOK, cat)
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels := s.catalogLoader.Levels()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": levels,
		"total":  len(levels),
	})
}

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	themes := s.catalogLoader.ListThemes()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"themes": themes,
		"total":  len(themes),
	})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	themeID := chi.URLParam(r, "themeId")
	theme := s.catalogLoader.GetTheme(themeID)
	if theme == nil {
		respondError(w, http.StatusNotFound, "not_found", "theme not found")
		return
	}
	respondJSON(w, http.StatusOK, theme)
}

func (s *Server) handleGetIndicator(w http.ResponseWriter, r *http.Request) {
	themeID := chi.URLParam(r, "themeId")
	indicatorID := chi.URLParam(r, "indicatorId")

	if s.catalogLoader.GetTheme(themeID) == nil {
		respondError(w, http.StatusNotFound, "not_found", "theme not found")
		return
	}

	indicator := s.catalogLoader.GetIndicator(themeID, indicatorID)
	if indicator == nil {
		respondError(w, http.StatusNotFound, "not_found", "indicator not found")
		return
	}
	respondJSON(w, http.StatusOK, indicator)
}
