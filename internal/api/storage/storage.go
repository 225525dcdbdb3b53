package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/callouthq/dispatch/internal/api/domain"
	"github.com/callouthq/dispatch/internal/lifecycle"
	"github.com/callouthq/dispatch/shared/postgresql"
)

const jobColumns = `
	id, job_token, engineer_token, short_code, status,
	service_type, service_level, customer_id, customer_email,
	assigned_supplier_id, engineer_name, engineer_email, engineer_phone,
	scheduled_start, timezone, duration_minutes, is_out_of_hours,
	site_address, site_city, site_country, site_latitude, site_longitude,
	currency, calculated_price_cents, supplier_payout_cents, platform_revenue_cents,
	cancellation_reason, cancelled_by,
	accepted_at, completed_at, cancelled_at, created_at, updated_at
`

// Storage is the PostgreSQL implementation of the lifecycle
// repository port.
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a Storage backed by the shared postgres client.
func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// CreateJob inserts a new job row and fills in the generated id.
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_token, engineer_token, short_code, status,
			service_type, service_level, customer_id, customer_email,
			scheduled_start, timezone, duration_minutes, is_out_of_hours,
			site_address, site_city, site_country, site_latitude, site_longitude,
			currency, calculated_price_cents, supplier_payout_cents, platform_revenue_cents,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23
		)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		job.JobToken,
		job.EngineerToken,
		job.ShortCode,
		job.Status,
		job.ServiceType,
		job.ServiceLevel,
		job.CustomerID,
		job.CustomerEmail,
		job.ScheduledStart,
		job.Timezone,
		job.DurationMinutes,
		job.IsOutOfHours,
		job.SiteAddress,
		job.SiteCity,
		job.SiteCountry,
		job.SiteLatitude,
		job.SiteLongitude,
		job.Currency,
		job.CalculatedPriceCents,
		job.SupplierPayoutCents,
		job.PlatformRevenueCents,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// JobByToken fetches a job by its customer-facing token.
func (s *Storage) JobByToken(ctx context.Context, jobToken string) (*domain.Job, error) {
	return s.jobWhere(ctx, "job_token = $1", jobToken)
}

// JobByEngineerToken fetches a job by its engineer bearer token.
func (s *Storage) JobByEngineerToken(ctx context.Context, engineerToken string) (*domain.Job, error) {
	return s.jobWhere(ctx, "engineer_token = $1", engineerToken)
}

// JobByShortCode fetches a job through the short alias of its
// engineer token.
func (s *Storage) JobByShortCode(ctx context.Context, shortCode string) (*domain.Job, error) {
	return s.jobWhere(ctx, "short_code = $1", shortCode)
}

func (s *Storage) jobWhere(ctx context.Context, condition string, arg interface{}) (*domain.Job, error) {
	var job domain.Job
	query := "SELECT " + jobColumns + " FROM jobs WHERE " + condition

	err := s.db.GetContext(ctx, &job, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ApplyTransition writes the new status and transition fields using
// optimistic locking: the update is conditioned on the status the
// caller read. Returns false when the condition no longer holds, so
// competitive transitions resolve to at most one winner.
func (s *Storage) ApplyTransition(ctx context.Context, jobID int64, from domain.Status, update lifecycle.JobUpdate) (bool, error) {
	query := "UPDATE jobs SET status = $1, updated_at = NOW()"
	args := []interface{}{update.To}
	argIdx := 2

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if update.SupplierID != "" {
		set("assigned_supplier_id", update.SupplierID)
	}
	if update.EngineerName != "" {
		set("engineer_name", update.EngineerName)
		set("engineer_email", update.EngineerEmail)
		set("engineer_phone", update.EngineerPhone)
	}
	if update.ClearEngineer {
		query += ", engineer_name = NULL, engineer_email = NULL, engineer_phone = NULL"
	}
	if update.CancellationReason != "" {
		set("cancellation_reason", update.CancellationReason)
		set("cancelled_by", update.CancelledBy)
	}
	if update.AcceptedAt != nil {
		set("accepted_at", *update.AcceptedAt)
	}
	if update.CompletedAt != nil {
		set("completed_at", *update.CompletedAt)
	}
	if update.CancelledAt != nil {
		set("cancelled_at", *update.CancelledAt)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND status = $%d", argIdx, argIdx+1)
	args = append(args, jobID, from)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to apply transition: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// AppendTimeline inserts one transition entry.
func (s *Storage) AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error {
	query := `
		INSERT INTO job_timeline (job_id, action, from_status, to_status, actor, note, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.JobID,
		entry.Action,
		entry.From,
		entry.To,
		entry.Actor,
		entry.Note,
		entry.Latitude,
		entry.Longitude,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}

	return nil
}

// AppendLocation inserts one advisory telemetry sample.
func (s *Storage) AppendLocation(ctx context.Context, sample domain.LocationSample) error {
	query := `
		INSERT INTO job_locations (job_id, latitude, longitude, accuracy_m, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		sample.JobID,
		sample.Latitude,
		sample.Longitude,
		sample.AccuracyM,
		sample.RecordedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append location sample: %w", err)
	}

	return nil
}

// Timeline returns the ordered transition history of a job.
func (s *Storage) Timeline(ctx context.Context, jobID int64) ([]domain.TimelineEntry, error) {
	query := `
		SELECT id, job_id, action, from_status, to_status, actor, note, latitude, longitude, created_at
		FROM job_timeline
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var entries []domain.TimelineEntry
	if err := s.db.SelectContext(ctx, &entries, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list timeline entries: %w", err)
	}

	return entries, nil
}

// SupplierRates returns coverage rows for a service in an area.
func (s *Storage) SupplierRates(ctx context.Context, serviceType, city, country string) ([]domain.SupplierRate, error) {
	query := `
		SELECT supplier_id, service_type, city, country, hourly_rate_cents, currency, base_latitude, base_longitude
		FROM supplier_rates
		WHERE service_type = $1 AND city = $2 AND country = $3
		ORDER BY hourly_rate_cents ASC
	`

	var rates []domain.SupplierRate
	if err := s.db.SelectContext(ctx, &rates, query, serviceType, city, country); err != nil {
		return nil, fmt.Errorf("failed to list supplier rates: %w", err)
	}

	return rates, nil
}

// JobFilter narrows a job listing.
type JobFilter struct {
	CustomerID string
	SupplierID string
	Status     string
	PageSize   int
	Cursor     *JobCursor
}

// JobCursor marks a position in the (created_at, id) descending order.
type JobCursor struct {
	CreatedAt time.Time
	JobID     int64
}

// ListJobs returns a page of jobs plus one extra row so the caller can
// tell whether more results exist.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.CustomerID != "" {
		query += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}

	if filter.SupplierID != "" {
		query += fmt.Sprintf(" AND assigned_supplier_id = $%d", argIdx)
		args = append(args, filter.SupplierID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY created_at DESC, id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}
