package agents

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentchat-platform/agentchat/internal/api"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, Catalog())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	agent, ok := Lookup(chi.URLParam(r, "agent_id"))
	if !ok {
		api.HandleError(w, api.NewNotFoundError("Agent not found"))
		return
	}
	api.JSON(w, http.StatusOK, agent)
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(r.URL.Query().Get("provider"))
	api.JSON(w, http.StatusOK, Models(provider))
}

func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	model, ok := LookupModel(chi.URLParam(r, "model_id"))
	if !ok {
		api.HandleError(w, api.NewNotFoundError("Provider agent not found"))
		return
	}
	api.JSON(w, http.StatusOK, model)
}
