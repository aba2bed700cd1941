package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/catalog"
	"github.com/terra-clan/circular-readiness/internal/models"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// errorStatus maps domain errors to an HTTP status and error code.
// Unknown errors map to 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity, "invalid_answer"
	case errors.Is(err, catalog.ErrUnknownQuestion):
		return http.StatusNotFound, "unknown_question"
	case errors.Is(err, assessment.ErrSessionNotFound),
		errors.Is(err, assessment.ErrSnapshotNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, assessment.ErrSessionExpired):
		return http.StatusGone, "session_expired"
	case errors.Is(err, assessment.ErrInvalidWeights):
		return http.StatusBadRequest, "invalid_weights"
	case errors.Is(err, assessment.ErrSaveFailed):
		return http.StatusBadGateway, "save_failed"
	case errors.Is(err, assessment.ErrCatalogNotLoaded):
		return http.StatusServiceUnavailable, "catalog_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondManagerError writes the mapped error; action names the failed operation
func respondManagerError(w http.ResponseWriter, err error, action string, attrs ...any) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("failed to "+action, append([]any{"error", err}, attrs...)...)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "failed to " + action
	}
	respondError(w, status, code, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// listFilters reads product, company, limit and offset query parameters
func listFilters(r *http.Request) models.ListFilters {
	q := r.URL.Query()
	filters := models.ListFilters{
		Product: q.Get("product"),
		Company: q.Get("company"),
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	return filters
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks, healthy := s.health.CheckAll(r.Context())
	if !healthy {
		for _, c := range checks {
			if !c.Healthy {
				slog.Warn("readiness check failed", "check", c.Name, "error", c.Error)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Data:    map[string]interface{}{"status": "not_ready", "checks": checks},
			Error:   &apiError{Code: "not_ready", Message: "service not ready"},
		}); err != nil {
			slog.Error("failed to encode error response", "error", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
