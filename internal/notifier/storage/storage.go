package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/callouthq/dispatch/internal/notifier/domain"
)

// Storage handles all database operations for the notifier
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetJobContacts reads the recipient snapshot for a job
func (s *Storage) GetJobContacts(ctx context.Context, jobID int64) (*domain.JobContacts, error) {
	query := `
		SELECT id, job_token, short_code, status, service_type,
		       customer_email, assigned_supplier_id,
		       engineer_name, engineer_email, engineer_phone,
		       scheduled_start
		FROM jobs
		WHERE id = $1
	`

	var contacts domain.JobContacts
	if err := s.db.GetContext(ctx, &contacts, query, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job contacts: %w", err)
	}

	return &contacts, nil
}

// WasSent reports whether this notification was already delivered.
// Redelivered events use this to stay idempotent.
func (s *Storage) WasSent(ctx context.Context, n domain.Notification) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE job_id = $1 AND event_type = $2 AND channel = $3 AND recipient = $4
			  AND status = $5
		)
	`

	var sent bool
	err := s.db.QueryRowContext(ctx, query,
		n.JobID, n.EventType, n.Channel, n.Recipient,
		domain.NotificationStatusSent,
	).Scan(&sent)
	if err != nil {
		return false, fmt.Errorf("failed to check notification status: %w", err)
	}

	return sent, nil
}

// RecordSent upserts the notification row as SENT
func (s *Storage) RecordSent(ctx context.Context, n domain.Notification) error {
	query := `
		INSERT INTO notifications (job_id, job_token, event_type, channel, recipient, subject, body, status, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		ON CONFLICT (job_id, event_type, channel, recipient) DO UPDATE
		SET status = EXCLUDED.status,
		    subject = EXCLUDED.subject,
		    body = EXCLUDED.body,
		    attempts = notifications.attempts + 1,
		    error_message = NULL,
		    updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query,
		n.JobID, n.JobToken, n.EventType, n.Channel, n.Recipient,
		n.Subject, n.Body, domain.NotificationStatusSent,
	)
	if err != nil {
		return fmt.Errorf("failed to record sent notification: %w", err)
	}

	s.logger.Info("Notification recorded",
		slog.Int64("job_id", n.JobID),
		slog.String("event_type", n.EventType),
		slog.String("channel", n.Channel),
	)

	return nil
}

// RecordFailure upserts the notification row as FAILED and returns the
// total number of delivery attempts so far
func (s *Storage) RecordFailure(ctx context.Context, n domain.Notification, errMsg string) (int, error) {
	query := `
		INSERT INTO notifications (job_id, job_token, event_type, channel, recipient, subject, body, status, attempts, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9)
		ON CONFLICT (job_id, event_type, channel, recipient) DO UPDATE
		SET status = EXCLUDED.status,
		    attempts = notifications.attempts + 1,
		    error_message = EXCLUDED.error_message,
		    updated_at = NOW()
		RETURNING attempts
	`

	var attempts int
	err := s.db.QueryRowContext(ctx, query,
		n.JobID, n.JobToken, n.EventType, n.Channel, n.Recipient,
		n.Subject, n.Body, domain.NotificationStatusFailed, errMsg,
	).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to record failed notification: %w", err)
	}

	return attempts, nil
}
