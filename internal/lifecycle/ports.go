package lifecycle

import (
	"context"
	"time"

	"github.com/callouthq/dispatch/internal/api/domain"
)

// JobUpdate is the field set written alongside a status change. Only
// non-zero members are applied; the write itself is conditional on the
// status the caller read.
type JobUpdate struct {
	To domain.Status

	SupplierID    string
	EngineerName  string
	EngineerEmail string
	EngineerPhone string
	ClearEngineer bool

	CancellationReason string
	CancelledBy        string

	AcceptedAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Repository is the persistence port. ApplyTransition must be an
// atomic conditional update ("update where status = from"); the
// machine never read-modify-writes without that guard.
type Repository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	JobByToken(ctx context.Context, jobToken string) (*domain.Job, error)
	JobByEngineerToken(ctx context.Context, engineerToken string) (*domain.Job, error)
	JobByShortCode(ctx context.Context, shortCode string) (*domain.Job, error)

	// ApplyTransition writes the update conditioned on the job still
	// being in the "from" status. Returns false, without error, when
	// the condition no longer holds.
	ApplyTransition(ctx context.Context, jobID int64, from domain.Status, update JobUpdate) (bool, error)

	AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error
	AppendLocation(ctx context.Context, sample domain.LocationSample) error
	Timeline(ctx context.Context, jobID int64) ([]domain.TimelineEntry, error)

	SupplierRates(ctx context.Context, serviceType, city, country string) ([]domain.SupplierRate, error)
}

// Event is a domain event emitted after a successful transition.
// Delivery (email/SMS) happens outside the core.
type Event struct {
	Type       string        `json:"type"`
	JobID      int64         `json:"job_id"`
	JobToken   string        `json:"job_token"`
	Status     domain.Status `json:"status"`
	Actor      string        `json:"actor"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPublisher is the messaging port.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, event Event) error
}
