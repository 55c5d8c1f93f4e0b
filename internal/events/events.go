// Package events publishes chat activity to NATS JetStream for
// downstream consumers (analytics, billing reconciliation). The whole
// package is optional at runtime: a nil Publisher drops everything.
package events

import "time"

// Stream names.
const (
	StreamChat = "CHAT_EVENTS"
)

// Subject constants.
const (
	SubjectExchange    = "chat.exchanges"
	SubjectQuotaDenied = "chat.quota.denied"
)

// ExchangeEvent is published after a chat reply has been produced.
type ExchangeEvent struct {
	UserID    string    `json:"user_id"`
	AgentID   string    `json:"agent_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// QuotaDeniedEvent is published when a message is rejected for quota.
type QuotaDeniedEvent struct {
	UserID      string    `json:"user_id"`
	AgentID     string    `json:"agent_id"`
	TokensUsed  int       `json:"tokens_used"`
	TokensLimit int       `json:"tokens_limit"`
	Timestamp   time.Time `json:"timestamp"`
}
