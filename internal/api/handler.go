// Package api provides HTTP handlers for the Trupy API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trupyai/trupy/internal/session"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// Handler serves the session and chat endpoints.
type Handler struct {
	svc *session.Service
}

// NewHandler creates a new Handler around the session service.
func NewHandler(svc *session.Service) *Handler {
	return &Handler{svc: svc}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON request body with a size cap.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// serviceError maps session service sentinels to HTTP status codes.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		Error(w, http.StatusNotFound, "Session not found or already ended.")
	case errors.Is(err, session.ErrConflict):
		Error(w, http.StatusConflict, "Session is already concluded. Please end the session.")
	case errors.Is(err, session.ErrValidation):
		Error(w, http.StatusUnprocessableEntity, "user_profile is required when anonymous is false.")
	default:
		Error(w, http.StatusInternalServerError, "Internal server error.")
	}
}
