package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/callouthq/dispatch/internal/notifier/domain"
)

// setupConsumer sets up the RabbitMQ consumer with QoS and returns the
// delivery channel
func (n *Notifier) setupConsumer(ctx context.Context) (<-chan amqp.Delivery, error) {
	channel := n.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Per-consumer prefetch; unacked events above this stay queued
	err := channel.Qos(
		n.prefetchCount, // prefetch count from config
		0,               // prefetch size
		false,           // global
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	n.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", n.prefetchCount),
	)

	deliveries, err := n.rabbitClient.Consume(n.notifierID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	n.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", n.notifierID),
		slog.String("queue", n.queueName),
	)

	return deliveries, nil
}

// startEventDispatcher listens to RabbitMQ deliveries and dispatches
// parsed events to the worker pool
func (n *Notifier) startEventDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	n.logger.Info("Event dispatcher started",
		slog.String("notifier_id", n.notifierID),
	)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Event dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				n.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var event domain.JobEvent
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				n.logger.Error("Failed to parse event JSON",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// NACK without requeue - a malformed body never parses
				// better on redelivery
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					n.logger.Error("Failed to NACK malformed event",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if event.JobID <= 0 || !strings.HasPrefix(event.Type, "job.") {
				n.logger.Error("Invalid event envelope",
					slog.String("type", event.Type),
					slog.Int64("job_id", event.JobID),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					n.logger.Error("Failed to NACK invalid event",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			msg := &domain.EventMessage{
				Event:       event,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case n.eventsChan <- msg:
				n.logger.Debug("Event dispatched to worker pool",
					slog.String("type", event.Type),
					slog.Int64("job_id", event.JobID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				n.logger.Info("Event dispatcher stopped while dispatching")
				// NACK so the event can be reprocessed after restart
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					n.logger.Error("Failed to NACK event on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
