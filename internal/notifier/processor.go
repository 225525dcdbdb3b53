package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/callouthq/dispatch/internal/notifier/domain"
)

// processEvent turns one job event into its notifications and records
// each delivery. Redelivered events skip notifications already marked
// SENT, so processing is idempotent.
func (n *Notifier) processEvent(ctx context.Context, msg *domain.EventMessage) error {
	eventCtx, cancel := context.WithTimeout(ctx, n.eventTimeout)
	defer cancel()

	n.logger.Info("Processing event",
		slog.String("type", msg.Event.Type),
		slog.Int64("job_id", msg.Event.JobID),
	)

	contacts, err := n.storage.GetJobContacts(eventCtx, msg.Event.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// Events are published after the job row is committed, so a
			// missing job means the reference is bad, not early.
			n.logger.Warn("Event references unknown job",
				slog.Int64("job_id", msg.Event.JobID),
			)
			return err
		}
		return domain.NewRetryableError(fmt.Errorf("failed to load job contacts: %w", err))
	}

	notifications, ok := buildNotifications(msg.Event, contacts)
	if !ok {
		// Unknown event types are acked and skipped so older notifier
		// builds tolerate newer publishers.
		n.logger.Warn("Skipping unknown event type",
			slog.String("type", msg.Event.Type),
			slog.Int64("job_id", msg.Event.JobID),
		)
		return nil
	}

	for _, notification := range notifications {
		if err := n.deliver(eventCtx, notification); err != nil {
			return err
		}
	}

	return nil
}

// deliver sends one notification and records the outcome
func (n *Notifier) deliver(ctx context.Context, notification domain.Notification) error {
	sent, err := n.storage.WasSent(ctx, notification)
	if err != nil {
		return domain.NewRetryableError(err)
	}
	if sent {
		n.logger.Debug("Notification already sent, skipping",
			slog.Int64("job_id", notification.JobID),
			slog.String("event_type", notification.EventType),
			slog.String("channel", notification.Channel),
		)
		return nil
	}

	if sendErr := n.sender.Send(ctx, notification); sendErr != nil {
		attempts, recordErr := n.storage.RecordFailure(ctx, notification, sendErr.Error())
		if recordErr != nil {
			n.logger.Error("Failed to record notification failure",
				slog.Int64("job_id", notification.JobID),
				slog.String("error", recordErr.Error()),
			)
			return domain.NewRetryableError(sendErr)
		}

		if attempts >= n.maxAttempts {
			n.logger.Warn("Notification exceeded max delivery attempts",
				slog.Int64("job_id", notification.JobID),
				slog.String("channel", notification.Channel),
				slog.Int("attempts", attempts),
				slog.Int("max_attempts", n.maxAttempts),
			)
			return fmt.Errorf("%w: %v", domain.ErrMaxAttemptsExceeded, sendErr)
		}

		return domain.NewRetryableError(fmt.Errorf("delivery failed: %w", sendErr))
	}

	if err := n.storage.RecordSent(ctx, notification); err != nil {
		// The message went out; a bookkeeping failure is not worth a
		// duplicate send, so still ACK.
		n.logger.Error("Failed to record sent notification",
			slog.Int64("job_id", notification.JobID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// buildNotifications maps an event to the messages it produces. The
// second return value is false for event types this build does not know.
func buildNotifications(event domain.JobEvent, contacts *domain.JobContacts) ([]domain.Notification, bool) {
	build := func(channel, recipient, subject, body string) domain.Notification {
		return domain.Notification{
			JobID:     event.JobID,
			JobToken:  event.JobToken,
			EventType: event.Type,
			Channel:   channel,
			Recipient: recipient,
			Subject:   subject,
			Body:      body,
		}
	}

	customerEmail := func(subject, body string) []domain.Notification {
		if contacts.CustomerEmail == "" {
			return nil
		}
		return []domain.Notification{build(domain.ChannelEmail, contacts.CustomerEmail, subject, body)}
	}

	when := contacts.ScheduledStart.Format("Mon 2 Jan 15:04")

	switch event.Type {
	case "job.created":
		return customerEmail(
			"We received your job request",
			fmt.Sprintf("Your %s visit is booked for %s. We are finding you a supplier.", contacts.ServiceType, when),
		), true

	case "job.supplier_accepted":
		return customerEmail(
			"A supplier accepted your job",
			fmt.Sprintf("Your %s visit on %s has been accepted. An engineer will be assigned shortly.", contacts.ServiceType, when),
		), true

	case "job.sent_to_engineer":
		var out []domain.Notification
		if contacts.EngineerPhone.Valid {
			out = append(out, build(domain.ChannelSMS, contacts.EngineerPhone.String,
				"",
				fmt.Sprintf("New %s job on %s. View and accept: /e/%s", contacts.ServiceType, when, contacts.ShortCode),
			))
		}
		if contacts.EngineerEmail.Valid {
			out = append(out, build(domain.ChannelEmail, contacts.EngineerEmail.String,
				"You have been assigned a job",
				fmt.Sprintf("A %s visit on %s is waiting for your acceptance. Link code: %s", contacts.ServiceType, when, contacts.ShortCode),
			))
		}
		return out, true

	case "job.engineer_accepted":
		engineer := "The engineer"
		if contacts.EngineerName.Valid {
			engineer = contacts.EngineerName.String
		}
		return customerEmail(
			"Your engineer is confirmed",
			fmt.Sprintf("%s will attend your %s visit on %s.", engineer, contacts.ServiceType, when),
		), true

	case "job.engineer_declined":
		return customerEmail(
			"Your job is being reassigned",
			"The assigned engineer is unavailable. Your supplier is arranging a replacement.",
		), true

	case "job.en_route":
		return customerEmail(
			"Your engineer is on the way",
			"The engineer has set off to your site. You can follow progress on the tracking page.",
		), true

	case "job.on_site":
		return customerEmail(
			"Your engineer has arrived",
			"The engineer has arrived on site and work is starting.",
		), true

	case "job.completed":
		return customerEmail(
			"Your job is complete",
			fmt.Sprintf("Work on your %s visit is finished. The signed site report is available on your job page.", contacts.ServiceType),
		), true

	case "job.cancelled":
		return customerEmail(
			"Your job has been cancelled",
			"Your job has been cancelled. If this was not expected, please contact support.",
		), true

	case "job.declined":
		return customerEmail(
			"We are finding you another supplier",
			"The supplier could not take your job. We are re-routing it now.",
		), true

	default:
		return nil, false
	}
}
