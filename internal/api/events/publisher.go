package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/callouthq/dispatch/internal/lifecycle"
	"github.com/callouthq/dispatch/shared/rabbitmq"
)

// Publisher emits job domain events to RabbitMQ for the notifier
// service. Delivery of the resulting emails/SMS stays outside the core.
type Publisher struct {
	client *rabbitmq.Client
}

// NewPublisher creates a RabbitMQ-backed event publisher.
func NewPublisher(client *rabbitmq.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishJobEvent marshals and publishes one event with retry.
func (p *Publisher) PublishJobEvent(ctx context.Context, event lifecycle.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	return p.client.PublishWithRetry(ctx, body, "application/json")
}
