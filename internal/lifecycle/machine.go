package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/callouthq/dispatch/internal/api/domain"
	"github.com/callouthq/dispatch/internal/geo"
	"github.com/callouthq/dispatch/internal/pricing"
	"github.com/callouthq/dispatch/internal/schedule"
	"github.com/callouthq/dispatch/internal/token"
)

// maxTransitionRetries bounds the re-read-and-retry loop for
// non-competitive transitions that lose a conditional write.
const maxTransitionRetries = 3

// ActionCreate labels the job-creation timeline entry. It is not a
// transition and has no edge in the status table.
const ActionCreate domain.Action = "create"

// Config wires the machine's collaborators.
type Config struct {
	Repo      Repository
	Pricing   *pricing.Engine
	Distance  *pricing.DistanceFeeCalculator
	Schedule  *schedule.Validator
	Tokens    *token.Authority
	Geocoder  geo.Geocoder
	Publisher EventPublisher
	Logger    *slog.Logger

	// Clock is the evaluation clock; defaults to time.Now. Tests
	// inject a fixed clock.
	Clock func() time.Time
}

// Machine validates and applies job lifecycle transitions. It owns the
// points where scheduling facts and money are locked in; the pricing
// and schedule engines themselves stay pure.
type Machine struct {
	repo      Repository
	pricing   *pricing.Engine
	distance  *pricing.DistanceFeeCalculator
	schedule  *schedule.Validator
	tokens    *token.Authority
	geocoder  geo.Geocoder
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMachine creates a job state machine.
func NewMachine(cfg Config) *Machine {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Machine{
		repo:      cfg.Repo,
		pricing:   cfg.Pricing,
		distance:  cfg.Distance,
		schedule:  cfg.Schedule,
		tokens:    cfg.Tokens,
		geocoder:  cfg.Geocoder,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       now,
	}
}

// CreateJobRequest carries a customer booking request.
type CreateJobRequest struct {
	CustomerID      string
	CustomerEmail   string
	ServiceType     string
	ServiceLevel    domain.ServiceLevel
	Date            string
	Time            string
	Timezone        string
	DurationMinutes int

	SiteAddress string
	SiteCity    string
	SiteCountry string

	// Optional; when absent the site is geocoded.
	SiteLatitude  *float64
	SiteLongitude *float64
}

// CreateJob validates the schedule, locks in the price exactly once,
// mints the job's credentials, and persists the new job in
// pending_supplier_acceptance. The price is never recomputed by any
// later transition.
func (m *Machine) CreateJob(ctx context.Context, req CreateJobRequest) (*domain.Job, error) {
	now := m.now()

	result, err := m.schedule.Validate(schedule.Request{
		ServiceLevel:    req.ServiceLevel,
		Date:            req.Date,
		Time:            req.Time,
		Timezone:        req.Timezone,
		DurationMinutes: req.DurationMinutes,
	}, now)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleRuleViolation, strings.Join(result.Reasons, "; "))
	}

	rate, err := m.cheapestRate(ctx, req.ServiceType, req.SiteCity, req.SiteCountry)
	if err != nil {
		return nil, err
	}

	siteLat, siteLon, remoteFee := m.resolveSite(ctx, req, rate)

	breakdown := m.pricing.Quote(rate.HourlyRateCents, req.DurationMinutes, result.OutOfHours, remoteFee, rate.Currency)

	creds, err := m.tokens.Issue()
	if err != nil {
		return nil, err
	}

	job := &domain.Job{
		JobToken:             creds.JobToken,
		EngineerToken:        creds.EngineerToken,
		ShortCode:            creds.ShortCode,
		Status:               domain.StatusPendingSupplierAcceptance,
		ServiceType:          req.ServiceType,
		ServiceLevel:         req.ServiceLevel,
		CustomerID:           req.CustomerID,
		CustomerEmail:        req.CustomerEmail,
		ScheduledStart:       result.Start,
		Timezone:             req.Timezone,
		DurationMinutes:      req.DurationMinutes,
		IsOutOfHours:         result.OutOfHours,
		SiteAddress:          req.SiteAddress,
		SiteCity:             req.SiteCity,
		SiteCountry:          req.SiteCountry,
		SiteLatitude:         siteLat,
		SiteLongitude:        siteLon,
		Currency:             breakdown.Currency,
		CalculatedPriceCents: breakdown.CustomerTotalCents,
		SupplierPayoutCents:  breakdown.SupplierTotalCents,
		PlatformRevenueCents: breakdown.PlatformTotalCents,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := m.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	m.appendTimeline(ctx, domain.TimelineEntry{
		JobID:     job.ID,
		Action:    ActionCreate,
		From:      domain.StatusPendingSupplierAcceptance,
		To:        domain.StatusPendingSupplierAcceptance,
		Actor:     "customer:" + req.CustomerID,
		CreatedAt: now,
	})
	m.publish(ctx, "job.created", job, "customer:"+req.CustomerID)

	m.logger.Info("Job created",
		slog.Int64("job_id", job.ID),
		slog.String("service_level", string(job.ServiceLevel)),
		slog.Bool("out_of_hours", job.IsOutOfHours),
		slog.Int64("customer_total_cents", breakdown.CustomerTotalCents),
	)

	return job, nil
}

// resolveSite returns the site coordinates and remote-site fee. A
// failed external lookup degrades to a zero fee rather than failing
// the booking.
func (m *Machine) resolveSite(ctx context.Context, req CreateJobRequest, rate *domain.SupplierRate) (float64, float64, *domain.RemoteSiteFee) {
	var siteLat, siteLon float64

	switch {
	case req.SiteLatitude != nil && req.SiteLongitude != nil:
		siteLat, siteLon = *req.SiteLatitude, *req.SiteLongitude
	default:
		coords, err := m.geocoder.Geocode(ctx, req.SiteAddress, req.SiteCity, req.SiteCountry)
		if err != nil {
			m.logger.Warn("Distance lookup unavailable, applying zero remote-site fee",
				slog.String("city", req.SiteCity),
				slog.String("error", err.Error()),
			)
			return 0, 0, nil
		}
		siteLat, siteLon = coords.Latitude, coords.Longitude
	}

	fee := m.distance.Fee(rate.BaseLatitude, rate.BaseLongitude, siteLat, siteLon)
	return siteLat, siteLon, &fee
}

func (m *Machine) cheapestRate(ctx context.Context, serviceType, city, country string) (*domain.SupplierRate, error) {
	rates, err := m.repo.SupplierRates(ctx, serviceType, city, country)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, domain.ErrPricingUnavailable
	}

	best := rates[0]
	for _, r := range rates[1:] {
		if r.HourlyRateCents < best.HourlyRateCents {
			best = r
		}
	}
	return &best, nil
}

// QuoteRequest is a speculative pricing query. Nothing is persisted.
type QuoteRequest struct {
	ServiceType     string
	ServiceLevel    domain.ServiceLevel
	DurationMinutes int
	City            string
	Country         string
	Date            string
	Time            string
	Timezone        string
}

// QuoteResponse reports coverage and the estimated price range.
type QuoteResponse struct {
	Available           bool   `json:"available"`
	SupplierCount       int    `json:"supplier_count"`
	Currency            string `json:"currency,omitempty"`
	EstimatedPriceCents *int64 `json:"estimated_price_cents,omitempty"`
	MinPriceCents       *int64 `json:"min_price_cents,omitempty"`
	MaxPriceCents       *int64 `json:"max_price_cents,omitempty"`
	OutOfHours          bool   `json:"out_of_hours"`
	Message             string `json:"message,omitempty"`
}

// Quote prices a prospective booking across all covering suppliers.
// It reuses the same pure engines that CreateJob locks prices with, so
// a quote and the eventual booking can never disagree.
func (m *Machine) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	result, err := m.schedule.Validate(schedule.Request{
		ServiceLevel:    req.ServiceLevel,
		Date:            req.Date,
		Time:            req.Time,
		Timezone:        req.Timezone,
		DurationMinutes: req.DurationMinutes,
	}, m.now())
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrScheduleRuleViolation, strings.Join(result.Reasons, "; "))
	}

	rates, err := m.repo.SupplierRates(ctx, req.ServiceType, req.City, req.Country)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return &QuoteResponse{
			Available: false,
			Message:   "no supplier coverage for the requested service and area",
		}, nil
	}

	var minTotal, maxTotal int64
	for i, rate := range rates {
		// Remote-site fees need a confirmed address; quotes price the
		// labour only.
		b := m.pricing.Quote(rate.HourlyRateCents, req.DurationMinutes, result.OutOfHours, nil, rate.Currency)
		if i == 0 || b.CustomerTotalCents < minTotal {
			minTotal = b.CustomerTotalCents
		}
		if b.CustomerTotalCents > maxTotal {
			maxTotal = b.CustomerTotalCents
		}
	}

	estimated := minTotal
	return &QuoteResponse{
		Available:           true,
		SupplierCount:       len(rates),
		Currency:            rates[0].Currency,
		EstimatedPriceCents: &estimated,
		MinPriceCents:       &minTotal,
		MaxPriceCents:       &maxTotal,
		OutOfHours:          result.OutOfHours,
	}, nil
}

// JobByToken loads the customer/admin view of a job.
func (m *Machine) JobByToken(ctx context.Context, jobToken string) (*domain.Job, error) {
	return m.repo.JobByToken(ctx, jobToken)
}

// JobByEngineerToken loads the engineer view of a job. Unknown tokens
// come back as ErrTokenInvalid with no hint of a near match.
func (m *Machine) JobByEngineerToken(ctx context.Context, engineerToken string) (*domain.Job, error) {
	job, err := m.repo.JobByEngineerToken(ctx, engineerToken)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return job, nil
}

// JobByShortCode resolves the compact alias to the same token-bound view.
func (m *Machine) JobByShortCode(ctx context.Context, shortCode string) (*domain.Job, error) {
	job, err := m.repo.JobByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return job, nil
}

// TimelineView is one rendered timeline row with the time spent in the
// resulting state.
type TimelineView struct {
	Action          domain.Action `json:"action"`
	From            domain.Status `json:"from"`
	To              domain.Status `json:"to"`
	Actor           string        `json:"actor"`
	Note            string        `json:"note,omitempty"`
	At              time.Time     `json:"at"`
	DurationInState string        `json:"duration_in_state,omitempty"`
}

// Timeline renders the ordered transition history of a job. It is a
// projection over the append-only entries, never a separate store.
func (m *Machine) Timeline(ctx context.Context, jobToken string) ([]TimelineView, error) {
	job, err := m.repo.JobByToken(ctx, jobToken)
	if err != nil {
		return nil, err
	}

	entries, err := m.repo.Timeline(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	views := make([]TimelineView, len(entries))
	for i, entry := range entries {
		view := TimelineView{
			Action: entry.Action,
			From:   entry.From,
			To:     entry.To,
			Actor:  entry.Actor,
			At:     entry.CreatedAt,
		}
		if entry.Note.Valid {
			view.Note = entry.Note.String
		}
		if i+1 < len(entries) {
			view.DurationInState = entries[i+1].CreatedAt.Sub(entry.CreatedAt).Round(time.Second).String()
		}
		views[i] = view
	}

	return views, nil
}

// appendTimeline records a transition entry. Timeline writes are
// best-effort; a failed append must not undo a committed transition.
func (m *Machine) appendTimeline(ctx context.Context, entry domain.TimelineEntry) {
	if err := m.repo.AppendTimeline(ctx, entry); err != nil {
		m.logger.Error("Failed to append timeline entry",
			slog.Int64("job_id", entry.JobID),
			slog.String("action", string(entry.Action)),
			slog.String("error", err.Error()),
		)
	}
}

// publish emits a domain event. Publish failures are logged, never
// surfaced: the transition has already committed.
func (m *Machine) publish(ctx context.Context, eventType string, job *domain.Job, actor string) {
	event := Event{
		Type:       eventType,
		JobID:      job.ID,
		JobToken:   job.JobToken,
		Status:     job.Status,
		Actor:      actor,
		OccurredAt: m.now(),
	}

	if err := m.publisher.PublishJobEvent(ctx, event); err != nil {
		m.logger.Error("Failed to publish job event",
			slog.Int64("job_id", job.ID),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
