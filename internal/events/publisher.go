package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing chat events. A nil
// Publisher is valid and discards all events, so callers never need to
// branch on whether NATS is configured.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishExchange publishes a completed chat exchange.
func (p *Publisher) PublishExchange(ctx context.Context, event ExchangeEvent) error {
	return p.publish(ctx, SubjectExchange, event)
}

// PublishQuotaDenied publishes a quota rejection.
func (p *Publisher) PublishQuotaDenied(ctx context.Context, event QuotaDeniedEvent) error {
	return p.publish(ctx, SubjectQuotaDenied, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	if p == nil || p.js == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
