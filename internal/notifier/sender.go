package notifier

import (
	"context"
	"log/slog"

	"github.com/callouthq/dispatch/internal/notifier/domain"
)

// Sender delivers one rendered notification over its channel
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// LogSender writes notifications to the structured log. It stands in
// for the email/SMS gateway in environments that have none configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification and reports success
func (s *LogSender) Send(ctx context.Context, n domain.Notification) error {
	s.logger.Info("Notification sent",
		slog.String("channel", n.Channel),
		slog.String("recipient", n.Recipient),
		slog.String("event_type", n.EventType),
		slog.Int64("job_id", n.JobID),
		slog.String("subject", n.Subject),
	)
	return nil
}
