package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callouthq/dispatch/internal/api/domain"
)

// writeError maps the domain error taxonomy onto HTTP responses. Token
// failures stay deliberately vague; conflict-class errors tell the
// caller to re-read and retry.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})

	case errors.Is(err, domain.ErrTokenInvalid):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrTokenInvalid.Error()})

	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrAlreadyAccepted):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrAlreadyAccepted.Error()})

	case errors.Is(err, domain.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrConcurrentModification.Error(), "retryable": true})

	case errors.Is(err, domain.ErrSupplierMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrSupplierMismatch.Error()})

	case errors.Is(err, domain.ErrIncompleteSchedule), errors.Is(err, domain.ErrInvalidFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrScheduleRuleViolation), errors.Is(err, domain.ErrReportIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrPricingUnavailable):
		c.JSON(http.StatusOK, gin.H{"available": false, "message": domain.ErrPricingUnavailable.Error()})

	default:
		logger.Error("Unhandled request error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
