package history

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/puentevoz/backend/internal/store"
	"github.com/puentevoz/backend/pkg/utils"
)

// Handler exposes the conversation log over HTTP.
type Handler struct {
	log *store.Log
}

// New creates the history handler.
func New(log *store.Log) *Handler {
	return &Handler{log: log}
}

// RegisterRoutes registers conversation history routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleGetConversations)
	r.Delete("/conversations", h.handleClearConversations)
	r.Get("/messages", h.handleGetMessages)
}

// handleGetConversations returns the full history for a session.
func (h *Handler) handleGetConversations(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	entries := h.log.Query(r.Context(), sessionID, nil)
	utils.RespondJSON(w, http.StatusOK, entries)
}

// handleClearConversations removes all history for a session. Idempotent.
func (h *Handler) handleClearConversations(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	h.log.Clear(r.Context(), sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "conversation history deleted"})
}

// handleGetMessages returns entries newer than the optional since cursor,
// used by clients to poll incrementally between realtime events.
func (h *Handler) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		since = &parsed
	}

	entries := h.log.Query(r.Context(), sessionID, since)
	utils.RespondJSON(w, http.StatusOK, map[string][]store.Entry{"messages": entries})
}
