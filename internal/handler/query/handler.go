package query

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	queryService "github.com/querypilot/backend/internal/service/query"
	"github.com/querypilot/backend/pkg/utils"
)

// Handler exposes query generation, execution and export.
type Handler struct {
	executor *queryService.Executor
}

// New creates the query handler.
func New(executor *queryService.Executor) *Handler {
	return &Handler{executor: executor}
}

// RegisterRoutes mounts the query endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/query/generate", h.handleGenerate)
	r.Post("/query/execute", h.handleExecute)
	r.Get("/query/results", h.handleResults)
	r.Get("/query/export", h.handleExport)
	r.Get("/query/stream", h.handleStream)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.executor.Generate(r.Context(), payload.Text)
	if err != nil {
		if errors.Is(err, queryService.ErrEmptyInput) {
			utils.RespondError(w, http.StatusBadRequest, "text is required")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.executor.Execute(r.Context(), payload.Query)
	if err != nil {
		if errors.Is(err, queryService.ErrNoQuery) {
			utils.RespondError(w, http.StatusBadRequest, "query is required")
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "query execution failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"activeQuery":  h.executor.ActiveQuery(),
		"results":      h.executor.Results(),
		"isLoading":    h.executor.IsLoading(),
		"isGenerating": h.executor.IsGenerating(),
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.executor.Export(r.URL.Query().Get("format"))
	if err != nil {
		if errors.Is(err, queryService.ErrNoResults) {
			utils.RespondError(w, http.StatusNotFound, "no results to export")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

// handleStream runs a generation and reports progress over SSE, so the
// frontend can show the typing indicator while the delay elapses.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("message")
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "status", map[string]string{"state": "generating"})

	reply, err := h.executor.Generate(r.Context(), text)
	if err != nil {
		utils.SendSSEEvent(w, flusher, "error", map[string]string{"message": "generation failed"})
		return
	}

	utils.SendSSEEvent(w, flusher, "message", reply)
	utils.SendSSEEvent(w, flusher, "status", map[string]string{"state": "done"})
}
