package dto

type CreateJobRequest struct {
	CustomerID      string   `json:"customer_id" binding:"required"`
	CustomerEmail   string   `json:"customer_email" binding:"required,email"`
	ServiceType     string   `json:"service_type" binding:"required"`
	ServiceLevel    string   `json:"service_level" binding:"required"`
	Date            string   `json:"date" binding:"required"`
	Time            string   `json:"time" binding:"required"`
	Timezone        string   `json:"timezone" binding:"required"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,gt=0"`
	SiteAddress     string   `json:"site_address" binding:"required"`
	SiteCity        string   `json:"site_city" binding:"required"`
	SiteCountry     string   `json:"site_country" binding:"required"`
	SiteLatitude    *float64 `json:"site_latitude"`
	SiteLongitude   *float64 `json:"site_longitude"`
}

type QuoteRequest struct {
	ServiceType     string `json:"service_type" binding:"required"`
	ServiceLevel    string `json:"service_level" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,gt=0"`
	City            string `json:"city" binding:"required"`
	Country         string `json:"country" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	Timezone        string `json:"timezone" binding:"required"`
}

type SupplierAcceptRequest struct {
	SupplierID string `json:"supplier_id" binding:"required"`
}

type AssignEngineerRequest struct {
	SupplierID    string `json:"supplier_id" binding:"required"`
	EngineerName  string `json:"engineer_name" binding:"required"`
	EngineerEmail string `json:"engineer_email" binding:"required,email"`
	EngineerPhone string `json:"engineer_phone"`
}

type TerminateRequest struct {
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type EngineerDeclineRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type LocationUpdateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	AccuracyM float64  `json:"accuracy_m"`
}

type CompleteJobRequest struct {
	Signature   string `json:"signature" binding:"required"`
	WorkSummary string `json:"work_summary" binding:"required"`
	Notes       string `json:"notes"`
}

type ListJobsRequest struct {
	CustomerID string `form:"customer_id"`
	SupplierID string `form:"supplier_id"`
	Status     string `form:"status"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// JobDTO is the customer/admin-facing job view. The engineer token is
// deliberately absent; it only travels on the engineer surface.
type JobDTO struct {
	JobToken             string `json:"job_token"`
	Status               string `json:"status"`
	ServiceType          string `json:"service_type"`
	ServiceLevel         string `json:"service_level"`
	ScheduledStart       string `json:"scheduled_start"`
	Timezone             string `json:"timezone"`
	DurationMinutes      int    `json:"duration_minutes"`
	IsOutOfHours         bool   `json:"is_out_of_hours"`
	SiteAddress          string `json:"site_address"`
	SiteCity             string `json:"site_city"`
	SiteCountry          string `json:"site_country"`
	Currency             string `json:"currency"`
	CalculatedPriceCents int64  `json:"calculated_price_cents"`
	AssignedSupplierID   string `json:"assigned_supplier_id,omitempty"`
	EngineerName         string `json:"engineer_name,omitempty"`
	CancellationReason   string `json:"cancellation_reason,omitempty"`
	CancelledBy          string `json:"cancelled_by,omitempty"`
	AcceptedAt           string `json:"accepted_at,omitempty"`
	CompletedAt          string `json:"completed_at,omitempty"`
	CancelledAt          string `json:"cancelled_at,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

// EngineerJobDTO is the token-bound engineer view of a job. It shows
// the site and schedule but no commercial breakdown.
type EngineerJobDTO struct {
	ShortCode       string  `json:"short_code"`
	Status          string  `json:"status"`
	ServiceType     string  `json:"service_type"`
	ScheduledStart  string  `json:"scheduled_start"`
	Timezone        string  `json:"timezone"`
	DurationMinutes int     `json:"duration_minutes"`
	SiteAddress     string  `json:"site_address"`
	SiteCity        string  `json:"site_city"`
	SiteCountry     string  `json:"site_country"`
	SiteLatitude    float64 `json:"site_latitude"`
	SiteLongitude   float64 `json:"site_longitude"`
	EngineerName    string  `json:"engineer_name,omitempty"`
}
