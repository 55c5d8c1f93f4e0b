// Package usage exposes the token ledger over HTTP for client display
// and admin tooling.
package usage

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agentchat-platform/agentchat/internal/api"
	"github.com/agentchat-platform/agentchat/internal/ledger"
)

type Handler struct {
	ledger   *ledger.Ledger
	validate *validator.Validate
}

func NewHandler(l *ledger.Ledger) *Handler {
	return &Handler{
		ledger:   l,
		validate: validator.New(),
	}
}

// Status handles GET /usage/status/{user_id}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	api.JSON(w, http.StatusOK, h.ledger.Status(r.Context(), userID))
}

type resetResponse struct {
	Message       string        `json:"message"`
	CurrentStatus ledger.Status `json:"current_status"`
}

// Reset handles POST /usage/reset/{user_id}. Admin/testing endpoint:
// zeroes the counter immediately.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	if err := h.ledger.Reset(r.Context(), userID); err != nil {
		slog.Error("resetting tokens", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to reset tokens"))
		return
	}

	api.JSON(w, http.StatusOK, resetResponse{
		Message:       "Tokens reset",
		CurrentStatus: h.ledger.Status(r.Context(), userID),
	})
}

type premiumRequest struct {
	IsPremium *bool `json:"is_premium" validate:"required"`
}

// SetPremium handles PUT /usage/premium/{user_id}.
func (h *Handler) SetPremium(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req premiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if err := h.ledger.SetPremiumStatus(r.Context(), userID, *req.IsPremium); err != nil {
		slog.Error("setting premium status", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to update premium status"))
		return
	}

	api.JSON(w, http.StatusOK, h.ledger.Status(r.Context(), userID))
}
