package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trupyai/trupy/internal/domain"
)

// ChatMessageRequest is the payload for POST /api/v1/chat/message.
type ChatMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatMessageResponse is the reply for a handled turn.
type ChatMessageResponse struct {
	SessionID      string         `json:"session_id"`
	Reply          string         `json:"reply"`
	IsFinal        bool           `json:"is_final"`
	CrisisDetected bool           `json:"crisis_detected"`
	FinalData      map[string]any `json:"final_data,omitempty"`
}

// HistoryResponse is the reply for a history request.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	History   []domain.Message `json:"history"`
}

// SendMessage handles POST /api/v1/chat/message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		Error(w, http.StatusUnprocessableEntity, "session_id and a non-empty message are required.")
		return
	}

	result, err := h.svc.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ChatMessageResponse{
		SessionID:      req.SessionID,
		Reply:          result.Reply,
		IsFinal:        result.Final,
		CrisisDetected: result.Crisis,
	})
}

// GetHistory handles GET /api/v1/chat/{sessionID}/history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	history, err := h.svc.History(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, HistoryResponse{SessionID: id, History: history})
}
