package domain

import (
	"database/sql"
	"time"
)

// ServiceLevel is the commitment tier for a job.
type ServiceLevel string

const (
	ServiceLevelSameBusinessDay ServiceLevel = "same_business_day"
	ServiceLevelNextBusinessDay ServiceLevel = "next_business_day"
	ServiceLevelScheduled       ServiceLevel = "scheduled"
)

// Job is the central dispatch entity, one row in the jobs table.
// Commercial facts (service level, OOH flag, price columns) are locked
// at creation and never recomputed by later transitions.
type Job struct {
	ID            int64  `db:"id"`
	JobToken      string `db:"job_token"`
	EngineerToken string `db:"engineer_token"`
	ShortCode     string `db:"short_code"`

	Status       Status       `db:"status"`
	ServiceType  string       `db:"service_type"`
	ServiceLevel ServiceLevel `db:"service_level"`

	CustomerID    string         `db:"customer_id"`
	CustomerEmail string         `db:"customer_email"`
	SupplierID    sql.NullString `db:"assigned_supplier_id"`

	EngineerName  sql.NullString `db:"engineer_name"`
	EngineerEmail sql.NullString `db:"engineer_email"`
	EngineerPhone sql.NullString `db:"engineer_phone"`

	// Scheduling facts.
	ScheduledStart  time.Time `db:"scheduled_start"`
	Timezone        string    `db:"timezone"`
	DurationMinutes int       `db:"duration_minutes"`
	IsOutOfHours    bool      `db:"is_out_of_hours"`

	// Site facts, read once at pricing-lock time.
	SiteAddress   string  `db:"site_address"`
	SiteCity      string  `db:"site_city"`
	SiteCountry   string  `db:"site_country"`
	SiteLatitude  float64 `db:"site_latitude"`
	SiteLongitude float64 `db:"site_longitude"`

	// Locked commercial facts, integer minor units.
	Currency             string `db:"currency"`
	CalculatedPriceCents int64  `db:"calculated_price_cents"`
	SupplierPayoutCents  int64  `db:"supplier_payout_cents"`
	PlatformRevenueCents int64  `db:"platform_revenue_cents"`

	CancellationReason sql.NullString `db:"cancellation_reason"`
	CancelledBy        sql.NullString `db:"cancelled_by"`

	AcceptedAt  sql.NullTime `db:"accepted_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
	CancelledAt sql.NullTime `db:"cancelled_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// TimelineEntry is one recorded transition in a job's history. The
// timeline is a read-only projection; rows are append-only.
type TimelineEntry struct {
	ID        int64           `db:"id"`
	JobID     int64           `db:"job_id"`
	Action    Action          `db:"action"`
	From      Status          `db:"from_status"`
	To        Status          `db:"to_status"`
	Actor     string          `db:"actor"`
	Note      sql.NullString  `db:"note"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
	CreatedAt time.Time       `db:"created_at"`
}

// LocationSample is one advisory telemetry point from the engineer.
// Samples never influence pricing.
type LocationSample struct {
	JobID      int64     `db:"job_id" json:"job_id"`
	Latitude   float64   `db:"latitude" json:"latitude"`
	Longitude  float64   `db:"longitude" json:"longitude"`
	AccuracyM  float64   `db:"accuracy_m" json:"accuracy_m"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// SiteReport is the submitted site-visit report required to complete a job.
type SiteReport struct {
	Signature   string `json:"signature"`
	WorkSummary string `json:"work_summary"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks the report's required fields.
func (r SiteReport) Validate() error {
	if r.Signature == "" || r.WorkSummary == "" {
		return ErrReportIncomplete
	}
	return nil
}

// SupplierRate is one supplier's coverage row for a service and area.
type SupplierRate struct {
	SupplierID      string  `db:"supplier_id"`
	ServiceType     string  `db:"service_type"`
	City            string  `db:"city"`
	Country         string  `db:"country"`
	HourlyRateCents int64   `db:"hourly_rate_cents"`
	Currency        string  `db:"currency"`
	BaseLatitude    float64 `db:"base_latitude"`
	BaseLongitude   float64 `db:"base_longitude"`
}
