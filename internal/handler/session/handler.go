package session

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/querypilot/backend/internal/model/query"
	sessionService "github.com/querypilot/backend/internal/service/session"
	"github.com/querypilot/backend/pkg/utils"
)

// Handler exposes the session state manager over HTTP.
type Handler struct {
	sessions *sessionService.Manager
}

// New creates the session handler.
func New(sessions *sessionService.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the session endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleSnapshot)
	r.Put("/session/database-type", h.handleChangeDatabaseType)
	r.Put("/session/messages", h.handleUpdateMessages)
	r.Post("/sessions", h.handleCreate)
	r.Get("/sessions", h.handleHistory)
	r.Post("/sessions/{sessionID}/load", h.handleLoad)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handler) handleChangeDatabaseType(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DatabaseType query.DatabaseType `json:"databaseType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !payload.DatabaseType.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "databaseType must be \"sql\" or \"nosql\"")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.sessions.ChangeDatabaseType(payload.DatabaseType))
}

// handleUpdateMessages decodes the messages field leniently: a body
// whose messages value is not a list degrades to an empty list rather
// than an error, mirroring how persisted blobs are handled.
func (h *Handler) handleUpdateMessages(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var messages []query.Message
	if len(payload.Messages) > 0 {
		// A decode failure leaves messages nil; the manager substitutes
		// an empty list and logs it.
		_ = json.Unmarshal(payload.Messages, &messages)
	}

	utils.RespondJSON(w, http.StatusOK, h.sessions.UpdateMessages(messages))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusCreated, h.sessions.CreateNewSession())
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.sessions.Snapshot().History)
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	state, ok := h.sessions.LoadSession(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}
