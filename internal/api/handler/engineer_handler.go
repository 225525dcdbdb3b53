package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/callouthq/dispatch/internal/api/domain"
	"github.com/callouthq/dispatch/internal/api/dto"
)

// GetJob handles GET /engineer/job/:engineer_token
// The token is the engineer's entire credential; there is no login.
func (h *EngineerHandler) GetJob(c *gin.Context) {
	job, err := h.machine.JobByEngineerToken(c.Request.Context(), c.Param("engineer_token"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toEngineerJobDTO(job))
}

// GetJobByShortCode handles GET /e/:short_code
// Resolves the compact alias to the same token-bound view.
func (h *EngineerHandler) GetJobByShortCode(c *gin.Context) {
	job, err := h.machine.JobByShortCode(c.Request.Context(), c.Param("short_code"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toEngineerJobDTO(job))
}

// Accept handles POST /engineer/job/:engineer_token/accept
func (h *EngineerHandler) Accept(c *gin.Context) {
	job, err := h.machine.EngineerAccept(c.Request.Context(), c.Param("engineer_token"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toEngineerJobDTO(job))
}

// Decline handles POST /engineer/job/:engineer_token/decline
// The job goes back to the supplier for re-assignment.
func (h *EngineerHandler) Decline(c *gin.Context) {
	var req dto.EngineerDeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.machine.EngineerDecline(c.Request.Context(), c.Param("engineer_token"), req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toEngineerJobDTO(job))
}

// EnRoute handles POST /engineer/job/:engineer_token/en-route
func (h *EngineerHandler) EnRoute(c *gin.Context) {
	h.progress(c, h.machine.EngineerEnRoute)
}

// OnSite handles POST /engineer/job/:engineer_token/on-site
func (h *EngineerHandler) OnSite(c *gin.Context) {
	h.progress(c, h.machine.EngineerOnSite)
}

// Complete handles POST /engineer/job/:engineer_token/complete
// Requires the site-visit report; freezes the commercial facts.
func (h *EngineerHandler) Complete(c *gin.Context) {
	var req dto.CompleteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.machine.Complete(c.Request.Context(), c.Param("engineer_token"), domain.SiteReport{
		Signature:   req.Signature,
		WorkSummary: req.WorkSummary,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toEngineerJobDTO(job))
}

// progress runs an en-route/on-site transition with an optional
// geolocation sample that also refreshes the live tracking cache.
func (h *EngineerHandler) progress(c *gin.Context, transition func(ctx context.Context, engineerToken string, loc *domain.LocationSample) (*domain.Job, error)) {
	var req dto.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var sample *domain.LocationSample
	if req.Latitude != nil && req.Longitude != nil {
		sample = &domain.LocationSample{
			Latitude:   *req.Latitude,
			Longitude:  *req.Longitude,
			AccuracyM:  req.AccuracyM,
			RecordedAt: time.Now(),
		}
	}

	job, err := transition(c.Request.Context(), c.Param("engineer_token"), sample)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if sample != nil {
		if _, trackErr := h.tracker.Update(c.Request.Context(), *sample); trackErr != nil {
			// Advisory telemetry; the transition already committed.
			h.logger.Warn("Failed to update live tracking", slog.String("error", trackErr.Error()))
		}
	}

	c.JSON(http.StatusOK, toEngineerJobDTO(job))
}

func toEngineerJobDTO(job *domain.Job) dto.EngineerJobDTO {
	out := dto.EngineerJobDTO{
		ShortCode:       job.ShortCode,
		Status:          string(job.Status),
		ServiceType:     job.ServiceType,
		ScheduledStart:  job.ScheduledStart.Format(time.RFC3339),
		Timezone:        job.Timezone,
		DurationMinutes: job.DurationMinutes,
		SiteAddress:     job.SiteAddress,
		SiteCity:        job.SiteCity,
		SiteCountry:     job.SiteCountry,
		SiteLatitude:    job.SiteLatitude,
		SiteLongitude:   job.SiteLongitude,
	}
	if job.EngineerName.Valid {
		out.EngineerName = job.EngineerName.String
	}
	return out
}
