package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/callouthq/dispatch/internal/api/domain"
	"github.com/callouthq/dispatch/internal/api/dto"
	"github.com/callouthq/dispatch/internal/api/storage"
	"github.com/callouthq/dispatch/internal/lifecycle"
)

// CreateJob handles POST /api/v1/jobs
// Validates the schedule, locks the price, and creates the job in
// pending_supplier_acceptance.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	serviceLevel, ok := parseServiceLevel(req.ServiceLevel)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown service level"})
		return
	}

	job, err := h.machine.CreateJob(c.Request.Context(), lifecycle.CreateJobRequest{
		CustomerID:      req.CustomerID,
		CustomerEmail:   req.CustomerEmail,
		ServiceType:     req.ServiceType,
		ServiceLevel:    serviceLevel,
		Date:            req.Date,
		Time:            req.Time,
		Timezone:        req.Timezone,
		DurationMinutes: req.DurationMinutes,
		SiteAddress:     req.SiteAddress,
		SiteCity:        req.SiteCity,
		SiteCountry:     req.SiteCountry,
		SiteLatitude:    req.SiteLatitude,
		SiteLongitude:   req.SiteLongitude,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toJobDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_token
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.machine.JobByToken(c.Request.Context(), c.Param("job_token"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// Timeline handles GET /api/v1/jobs/:job_token/timeline
// Returns the ordered transition history with durations in state.
func (h *JobHandler) Timeline(c *gin.Context) {
	views, err := h.machine.Timeline(c.Request.Context(), c.Param("job_token"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"timeline": views})
}

// Tracking handles GET /api/v1/jobs/:job_token/tracking
// Returns the latest live engineer position, if any.
func (h *JobHandler) Tracking(c *gin.Context) {
	job, err := h.machine.JobByToken(c.Request.Context(), c.Param("job_token"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	sample, err := h.tracker.Latest(c.Request.Context(), job.ID)
	if err != nil {
		h.logger.Error("Failed to read live location", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if sample == nil {
		c.JSON(http.StatusOK, gin.H{"tracking": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracking": sample})
}

// SupplierAccept handles POST /api/v1/jobs/:job_token/accept
// First conditional write wins; every other supplier gets a conflict.
func (h *JobHandler) SupplierAccept(c *gin.Context) {
	var req dto.SupplierAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.machine.SupplierAccept(c.Request.Context(), c.Param("job_token"), req.SupplierID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// AssignEngineer handles POST /api/v1/jobs/:job_token/assign
// Responds with the engineer link material so the supplier can forward it.
func (h *JobHandler) AssignEngineer(c *gin.Context) {
	var req dto.AssignEngineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.machine.AssignEngineer(
		c.Request.Context(),
		c.Param("job_token"),
		req.SupplierID,
		req.EngineerName,
		req.EngineerEmail,
		req.EngineerPhone,
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":            toJobDTO(job),
		"engineer_token": job.EngineerToken,
		"short_code":     job.ShortCode,
	})
}

// Cancel handles POST /api/v1/jobs/:job_token/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	var req dto.TerminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.machine.Cancel(c.Request.Context(), c.Param("job_token"), req.Actor, req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// Decline handles POST /api/v1/jobs/:job_token/decline
func (h *JobHandler) Decline(c *gin.Context) {
	var req dto.TerminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.machine.Decline(c.Request.Context(), c.Param("job_token"), req.Actor, req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// Quote handles POST /api/v1/quotes
// Speculative pricing only; nothing is persisted.
func (h *JobHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	serviceLevel, ok := parseServiceLevel(req.ServiceLevel)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown service level"})
		return
	}

	quote, err := h.machine.Quote(c.Request.Context(), lifecycle.QuoteRequest{
		ServiceType:     req.ServiceType,
		ServiceLevel:    serviceLevel,
		DurationMinutes: req.DurationMinutes,
		City:            req.City,
		Country:         req.Country,
		Date:            req.Date,
		Time:            req.Time,
		Timezone:        req.Timezone,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs with optional filtering and cursor pagination.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	if req.Status != "" {
		if _, err := domain.ParseStatus(req.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	filter := storage.JobFilter{
		CustomerID: req.CustomerID,
		SupplierID: req.SupplierID,
		Status:     req.Status,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = toJobDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

func parseServiceLevel(s string) (domain.ServiceLevel, bool) {
	switch domain.ServiceLevel(s) {
	case domain.ServiceLevelSameBusinessDay, domain.ServiceLevelNextBusinessDay, domain.ServiceLevelScheduled:
		return domain.ServiceLevel(s), true
	}
	return "", false
}

func toJobDTO(job *domain.Job) dto.JobDTO {
	out := dto.JobDTO{
		JobToken:             job.JobToken,
		Status:               string(job.Status),
		ServiceType:          job.ServiceType,
		ServiceLevel:         string(job.ServiceLevel),
		ScheduledStart:       job.ScheduledStart.Format(time.RFC3339),
		Timezone:             job.Timezone,
		DurationMinutes:      job.DurationMinutes,
		IsOutOfHours:         job.IsOutOfHours,
		SiteAddress:          job.SiteAddress,
		SiteCity:             job.SiteCity,
		SiteCountry:          job.SiteCountry,
		Currency:             job.Currency,
		CalculatedPriceCents: job.CalculatedPriceCents,
		CreatedAt:            job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            job.UpdatedAt.Format(time.RFC3339),
	}

	if job.SupplierID.Valid {
		out.AssignedSupplierID = job.SupplierID.String
	}
	if job.EngineerName.Valid {
		out.EngineerName = job.EngineerName.String
	}
	if job.CancellationReason.Valid {
		out.CancellationReason = job.CancellationReason.String
	}
	if job.CancelledBy.Valid {
		out.CancelledBy = job.CancelledBy.String
	}
	if job.AcceptedAt.Valid {
		out.AcceptedAt = job.AcceptedAt.Time.Format(time.RFC3339)
	}
	if job.CompletedAt.Valid {
		out.CompletedAt = job.CompletedAt.Time.Format(time.RFC3339)
	}
	if job.CancelledAt.Valid {
		out.CancelledAt = job.CancelledAt.Time.Format(time.RFC3339)
	}

	return out
}
