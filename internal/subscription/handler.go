// Package subscription exposes subscription status to clients. Receipt
// verification against the app stores is not implemented; the verify
// endpoint acknowledges the receipt without validating it.
package subscription

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agentchat-platform/agentchat/internal/api"
	"github.com/agentchat-platform/agentchat/internal/ratewindow"
	"github.com/agentchat-platform/agentchat/internal/store"
)

const defaultTier = ratewindow.TierWeekly

type Handler struct {
	store    store.Store
	validate *validator.Validate
}

func NewHandler(s store.Store) *Handler {
	return &Handler{
		store:    s,
		validate: validator.New(),
	}
}

type statusResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Tier   string `json:"tier"`
}

// Status handles GET /api/subscription/status/{user_id}. Users without
// a stored subscription report the free default rather than an error.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	resp := statusResponse{
		UserID: userID,
		Status: "active",
		Tier:   defaultTier,
	}
	if sub, err := h.store.GetSubscription(r.Context(), userID); err == nil {
		resp.Status = sub.Status
		resp.Tier = sub.Tier
	}

	api.JSON(w, http.StatusOK, resp)
}

type verifyRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android"`
	Receipt  string `json:"receipt" validate:"required"`
}

type verifyResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Verify handles POST /api/subscription/verify. TODO: validate the
// receipt against the App Store Server API / Google Play Developer API.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	api.JSON(w, http.StatusOK, verifyResponse{
		UserID: req.UserID,
		Status: "pending_verification",
	})
}
