package database

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/querypilot/backend/internal/mockdb"
	sessionService "github.com/querypilot/backend/internal/service/session"
	"github.com/querypilot/backend/internal/store"
	"github.com/querypilot/backend/pkg/utils"
)

// Keys written by the selection step and read by the generation pages.
const (
	selectedDatabaseKey     = "selected-database"
	selectedDatabaseTypeKey = "selected-database-type"
)

// Handler serves the engine catalog and the engine-selection step.
type Handler struct {
	store    store.Store
	sessions *sessionService.Manager
}

// New creates the database handler.
func New(st store.Store, sessions *sessionService.Manager) *Handler {
	return &Handler{store: st, sessions: sessions}
}

// RegisterRoutes mounts the database endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/databases", h.handleList)
	r.Get("/databases/schema", h.handleSchema)
	r.Get("/databases/selection", h.handleGetSelection)
	r.Put("/databases/selection", h.handleSelect)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, mockdb.Engines())
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sql":   mockdb.SQLSchema(),
		"nosql": mockdb.NoSQLSchema(),
	})
}

func (h *Handler) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.store.Get(selectedDatabaseKey)
	if err != nil {
		log.Printf("[database] read %s: %v", selectedDatabaseKey, err)
	}
	databaseType, _, err := h.store.Get(selectedDatabaseTypeKey)
	if err != nil {
		log.Printf("[database] read %s: %v", selectedDatabaseTypeKey, err)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"id":           id,
		"databaseType": databaseType,
	})
}

// handleSelect records the chosen engine and switches the current
// session to its database family.
func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	engine, ok := mockdb.FindEngine(payload.ID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown database engine")
		return
	}

	if err := h.store.Set(selectedDatabaseKey, engine.ID); err != nil {
		log.Printf("[database] persist %s: %v", selectedDatabaseKey, err)
	}
	if err := h.store.Set(selectedDatabaseTypeKey, string(engine.Type)); err != nil {
		log.Printf("[database] persist %s: %v", selectedDatabaseTypeKey, err)
	}

	state := h.sessions.ChangeDatabaseType(engine.Type)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"engine": engine,
		"state":  state,
	})
}
