// Package chat orchestrates one inbound message end-to-end: quota
// check, generation, persistence, and usage bookkeeping. Only the steps
// needed to produce the reply can fail the request; everything after
// generation is best-effort.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentchat-platform/agentchat/internal/events"
	"github.com/agentchat-platform/agentchat/internal/ledger"
	"github.com/agentchat-platform/agentchat/internal/metrics"
	"github.com/agentchat-platform/agentchat/internal/provider"
	"github.com/agentchat-platform/agentchat/internal/ratewindow"
	"github.com/agentchat-platform/agentchat/internal/store"
)

// Request is one inbound chat message.
type Request struct {
	UserID  string
	AgentID string
	Message string
	// History overrides the cached conversation context when the client
	// supplies its own transcript.
	History []provider.Turn
}

// Reply is the pipeline's answer for a permitted message.
type Reply struct {
	AgentID  string `json:"agent_id"`
	Response string `json:"response"`
	UserID   string `json:"user_id"`
}

// InputError marks a request rejected for missing or invalid fields.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// QuotaError marks a request rejected because the user's balance is
// spent. It carries the current counters for client display.
type QuotaError struct {
	Status ledger.Status
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: %d of %d tokens used", e.Status.TokensUsed, e.Status.TokensLimit)
}

// Responder produces the reply text for a permitted message.
type Responder interface {
	Respond(ctx context.Context, agentID, message string, history []provider.Turn) string
}

// Pipeline wires the collaborators for message processing. All fields
// are set once at construction and safe for concurrent use.
type Pipeline struct {
	ledger    *ledger.Ledger
	tracker   *ratewindow.Tracker
	responder Responder
	store     store.Store
	history   *History
	events    *events.Publisher
	logger    *slog.Logger

	// one log line per persistence-failure kind per process lifetime
	persistLogged sync.Map
}

func NewPipeline(
	ledger *ledger.Ledger,
	tracker *ratewindow.Tracker,
	responder Responder,
	st store.Store,
	history *History,
	publisher *events.Publisher,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		ledger:    ledger,
		tracker:   tracker,
		responder: responder,
		store:     st,
		history:   history,
		events:    publisher,
		logger:    logger,
	}
}

// Process runs one message through the pipeline. It returns an
// *InputError or *QuotaError for rejected messages; any other error is
// unclassified and maps to a server error at the transport.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Reply, error) {
	if req.UserID == "" || req.AgentID == "" || req.Message == "" {
		metrics.ChatMessagesTotal.WithLabelValues("invalid").Inc()
		return nil, &InputError{Msg: "Missing agent_id or message"}
	}

	if !p.tracker.CheckLimit(ctx, req.UserID) {
		return nil, p.deny(ctx, req, "rate_denied")
	}

	if !p.ledger.CanUseToken(ctx, req.UserID) {
		return nil, p.deny(ctx, req, "quota_denied")
	}
	if !p.ledger.UseToken(ctx, req.UserID) {
		// lost the race against a concurrent message from the same user
		return nil, p.deny(ctx, req, "quota_denied")
	}
	metrics.FreeTokensConsumedTotal.Inc()

	history := req.History
	if history == nil {
		history = p.history.Recent(ctx, req.UserID, req.AgentID)
	}

	response := p.responder.Respond(ctx, req.AgentID, req.Message, history)

	p.persist(ctx, req, response)
	p.record(ctx, req, response)

	metrics.ChatMessagesTotal.WithLabelValues("ok").Inc()
	return &Reply{
		AgentID:  req.AgentID,
		Response: response,
		UserID:   req.UserID,
	}, nil
}

func (p *Pipeline) deny(ctx context.Context, req Request, outcome string) error {
	metrics.ChatMessagesTotal.WithLabelValues(outcome).Inc()

	st := p.ledger.Status(ctx, req.UserID)
	if err := p.events.PublishQuotaDenied(ctx, events.QuotaDeniedEvent{
		UserID:      req.UserID,
		AgentID:     req.AgentID,
		TokensUsed:  st.TokensUsed,
		TokensLimit: st.TokensLimit,
		Timestamp:   time.Now(),
	}); err != nil {
		p.logger.Debug("publishing quota event failed", "error", err)
	}
	return &QuotaError{Status: st}
}

// persist stores the exchange. Failures are classified, logged at most
// once per kind for the process lifetime, and ignored.
func (p *Pipeline) persist(ctx context.Context, req Request, response string) {
	ex := &store.Exchange{
		UserID:   req.UserID,
		AgentID:  req.AgentID,
		Message:  req.Message,
		Response: response,
	}
	if err := p.store.InsertExchange(ctx, ex); err != nil {
		kind := store.KindOf(err)
		once, _ := p.persistLogged.LoadOrStore(kind, new(sync.Once))
		once.(*sync.Once).Do(func() {
			p.logger.Error("persisting exchange failed, suppressing repeats of this kind",
				"kind", kind.String(), "error", err)
		})
	}
}

// record updates the rolling bookkeeping around a delivered reply:
// history cache, rate-window counter, event stream. All best-effort.
func (p *Pipeline) record(ctx context.Context, req Request, response string) {
	if err := p.history.Append(ctx, req.UserID, req.AgentID, req.Message, response); err != nil {
		p.logger.Debug("caching history failed", "error", err, "user_id", req.UserID)
	}

	p.tracker.IncrementUsage(ctx, req.UserID)

	if err := p.events.PublishExchange(ctx, events.ExchangeEvent{
		UserID:    req.UserID,
		AgentID:   req.AgentID,
		Message:   req.Message,
		Response:  response,
		Timestamp: time.Now(),
	}); err != nil {
		p.logger.Debug("publishing exchange event failed", "error", err)
	}
}
