package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentchat-platform/agentchat/internal/metrics"
)

// historyWindow is how many prior exchanges get folded into the prompt.
const historyWindow = 10

// Turn is one prior exchange replayed into the prompt.
type Turn struct {
	Message  string
	Response string
}

// Responder builds persona-flavored prompts and turns backend failures
// into apology text the end user can read.
type Responder struct {
	client  Client
	persona func(agentID string) string
	logger  *slog.Logger
}

func NewResponder(client Client, persona func(agentID string) string, logger *slog.Logger) *Responder {
	return &Responder{client: client, persona: persona, logger: logger}
}

// Respond generates a reply for the user's message in the agent's voice.
// It never returns an error; failures produce an apology string.
func (r *Responder) Respond(ctx context.Context, agentID, message string, history []Turn) string {
	prompt := r.buildPrompt(agentID, message, history)

	text, err := r.client.Generate(ctx, prompt)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			perr = &Error{Kind: KindUnknown, Err: err}
		}
		metrics.ProviderFailuresTotal.WithLabelValues(perr.Kind.String()).Inc()
		r.logger.Warn("generation failed",
			slog.String("agent_id", agentID),
			slog.String("kind", perr.Kind.String()),
			slog.String("error", perr.Error()))
		return apology(perr)
	}
	return strings.TrimSpace(text)
}

func (r *Responder) buildPrompt(agentID, message string, history []Turn) string {
	var b strings.Builder
	b.WriteString(r.persona(agentID))
	b.WriteString("\n\n")

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, t := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.Message, t.Response)
	}

	fmt.Fprintf(&b, "User: %s\nAssistant:", message)
	return b.String()
}

func apology(err *Error) string {
	switch err.Kind {
	case KindRateLimited:
		if err.RetryAfter > 0 {
			return fmt.Sprintf("I'm getting a lot of requests right now. Please try again in about %d seconds.", int(err.RetryAfter.Seconds()))
		}
		return "I'm getting a lot of requests right now. Please try again in a moment."
	case KindPermission:
		return "I'm sorry, I don't have access to the model I need right now. Please try again later."
	case KindInvalidKey:
		return "I'm sorry, something is misconfigured on my end. Please contact support if this keeps happening."
	default:
		return "I'm sorry, I couldn't come up with a response just now. Please try again."
	}
}
