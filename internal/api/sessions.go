package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/trupyai/trupy/internal/domain"
	"github.com/trupyai/trupy/internal/session"
)

// StartSessionRequest is the payload for POST /api/v1/sessions/start.
type StartSessionRequest struct {
	Anonymous   bool            `json:"anonymous"`
	UserProfile *domain.Profile `json:"user_profile,omitempty"`
}

// StartSessionResponse is the reply for a successful session start.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
	Anonymous bool   `json:"anonymous"`
}

// EndSessionResponse is the reply for a successful session end.
type EndSessionResponse struct {
	SessionID string         `json:"session_id"`
	Summary   string         `json:"summary"`
	UserData  map[string]any `json:"user_data"`
}

// ArchivedSessionResponse is one entry in the operator review listing.
type ArchivedSessionResponse struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	UserData  map[string]any `json:"user_data"`
	CreatedAt string         `json:"created_at"`
	EndedAt   string         `json:"ended_at"`
}

// RegisterRoutes mounts all session and chat endpoints under /api/v1.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/start", h.StartSession)
			r.Get("/history", h.ListArchivedSessions)
			r.Post("/{sessionID}/end", h.EndSession)
		})
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", h.SendMessage)
			r.Get("/{sessionID}/history", h.GetHistory)
		})
	})
}

// StartSession handles POST /api/v1/sessions/start.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	id, greeting, err := h.svc.Start(r.Context(), req.UserProfile, req.Anonymous)
	if err != nil {
		serviceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, StartSessionResponse{
		SessionID: id,
		Greeting:  greeting,
		Anonymous: req.Anonymous,
	})
}

// EndSession handles POST /api/v1/sessions/{sessionID}/end.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	result, err := h.svc.End(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			serviceError(w, err)
			return
		}
		Error(w, http.StatusBadGateway, "Failed to archive session. Please try again.")
		return
	}

	JSON(w, http.StatusOK, EndSessionResponse{
		SessionID: id,
		Summary:   result.Summary,
		UserData:  result.UserData,
	})
}

// ListArchivedSessions handles GET /api/v1/sessions/history.
func (h *Handler) ListArchivedSessions(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 50)

	records, err := h.svc.ListArchived(r.Context(), skip, limit)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Failed to list archived sessions.")
		return
	}

	out := make([]ArchivedSessionResponse, 0, len(records))
	for _, record := range records {
		out = append(out, ArchivedSessionResponse{
			ID:        record.ID,
			SessionID: record.SessionID,
			UserData:  record.UserData,
			CreatedAt: record.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			EndedAt:   record.EndedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	JSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
