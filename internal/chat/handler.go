package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/agentchat-platform/agentchat/internal/api"
	"github.com/agentchat-platform/agentchat/internal/provider"
)

type Handler struct {
	pipeline *Pipeline
	validate *validator.Validate
}

func NewHandler(pipeline *Pipeline) *Handler {
	return &Handler{
		pipeline: pipeline,
		validate: validator.New(),
	}
}

type messageRequest struct {
	UserID  string        `json:"user_id" validate:"required"`
	AgentID string        `json:"agent_id" validate:"required"`
	Message string        `json:"message" validate:"required"`
	History []historyTurn `json:"conversation_history"`
}

type historyTurn struct {
	UserMessage string `json:"user_message"`
	Response    string `json:"response"`
}

// SendMessage handles POST /api/chat/message, the stateless fallback
// for clients without a WebSocket session.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	reply, err := h.pipeline.Process(r.Context(), Request{
		UserID:  req.UserID,
		AgentID: req.AgentID,
		Message: req.Message,
		History: toTurns(req.History),
	})
	if err != nil {
		h.handleProcessError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, reply)
}

func (h *Handler) handleProcessError(w http.ResponseWriter, err error) {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		api.HandleError(w, api.NewBadRequestError(inputErr.Msg))
		return
	}

	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		api.HandleError(w, api.NewQuotaExceededError(
			"Rate limit exceeded. Please upgrade your plan.", quotaErr.Status))
		return
	}

	slog.Error("processing chat message", "error", err)
	api.HandleError(w, api.ErrInternalServer)
}

func toTurns(history []historyTurn) []provider.Turn {
	if history == nil {
		return nil
	}
	turns := make([]provider.Turn, len(history))
	for i, t := range history {
		turns[i] = provider.Turn{Message: t.UserMessage, Response: t.Response}
	}
	return turns
}
