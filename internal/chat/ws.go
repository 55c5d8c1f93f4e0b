package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/agentchat-platform/agentchat/internal/api"
	"github.com/agentchat-platform/agentchat/internal/metrics"
)

const wsWriteTimeout = 10 * time.Second

type inboundFrame struct {
	AgentID string `json:"agent_id"`
	Message string `json:"message"`
}

type replyFrame struct {
	AgentID  string `json:"agent_id"`
	Response string `json:"response"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// ConnectionManager tracks open sessions so shutdown can close them.
type ConnectionManager struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{conns: make(map[*websocket.Conn]struct{})}
}

func (m *ConnectionManager) add(c *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c] = struct{}{}
}

func (m *ConnectionManager) remove(c *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, c)
}

// CloseAll terminates every open session. Used on shutdown.
func (m *ConnectionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.conns {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down")
	}
	m.conns = make(map[*websocket.Conn]struct{})
}

// WSHandler serves the real-time chat endpoint. One goroutine per
// connection; frames on a connection are processed in arrival order.
type WSHandler struct {
	pipeline    *Pipeline
	manager     *ConnectionManager
	idleTimeout time.Duration
	logger      *slog.Logger
}

func NewWSHandler(pipeline *Pipeline, manager *ConnectionManager, idleTimeout time.Duration, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		pipeline:    pipeline,
		manager:     manager,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Serve handles GET /api/chat/ws/{user_id}.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		api.HandleError(w, api.NewBadRequestError("user_id is required"))
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// browser origin checks are handled by the CORS layer
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	h.manager.add(conn)
	defer h.manager.remove(conn)

	metrics.WSConnectionsActive.Inc()
	defer metrics.WSConnectionsActive.Dec()

	h.logger.Info("websocket session opened", "user_id", userID)
	defer h.logger.Info("websocket session closed", "user_id", userID)

	ctx := r.Context()
	for {
		readCtx, cancel := context.WithTimeout(ctx, h.idleTimeout)
		var frame inboundFrame
		err := wsjson.Read(readCtx, conn, &frame)
		cancel()
		if err != nil {
			// client went away or sat idle past the deadline
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		h.handleFrame(ctx, conn, userID, frame)
	}
}

func (h *WSHandler) handleFrame(ctx context.Context, conn *websocket.Conn, userID string, frame inboundFrame) {
	reply, err := h.pipeline.Process(ctx, Request{
		UserID:  userID,
		AgentID: frame.AgentID,
		Message: frame.Message,
	})
	if err != nil {
		h.writeJSON(ctx, conn, errorFrame{Error: frameError(err)})
		return
	}

	h.writeJSON(ctx, conn, replyFrame{AgentID: reply.AgentID, Response: reply.Response})
}

func (h *WSHandler) writeJSON(ctx context.Context, conn *websocket.Conn, v any) {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, v); err != nil {
		h.logger.Debug("websocket write failed", "error", err)
	}
}

func frameError(err error) string {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Msg
	}
	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		return "Rate limit exceeded. Please upgrade your plan."
	}
	return "Something went wrong. Please try again."
}
