package schedule

import (
	"fmt"
	"time"

	"github.com/callouthq/dispatch/internal/api/domain"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// sameDayWindow is how far ahead a same-business-day start may be.
	sameDayWindow = 4 * time.Hour

	// advanceNotice is the minimum lead time for the scheduled tier.
	advanceNotice = 48 * time.Hour
)

// Config holds the business-hours window, injected from application
// config so the numbers live in exactly one place.
type Config struct {
	BusinessHoursStart int // hour of day, site local
	BusinessHoursEnd   int
}

// DefaultConfig is 09:00-17:00, Monday to Friday.
func DefaultConfig() Config {
	return Config{BusinessHoursStart: 9, BusinessHoursEnd: 17}
}

// Request is a scheduling request to validate.
type Request struct {
	ServiceLevel    domain.ServiceLevel
	Date            string // YYYY-MM-DD, site local
	Time            string // HH:MM, site local
	Timezone        string // IANA name
	DurationMinutes int
}

// Result is the outcome of validation. Business-rule violations set
// Valid=false with reasons; they are never returned as errors.
type Result struct {
	Valid      bool
	OutOfHours bool
	Start      time.Time
	Reasons    []string
	Warnings   []string
}

// Validator decides schedule validity and the out-of-hours flag. It is
// pure: the evaluation clock is a parameter, never ambient wall time.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator with the given business-hours window.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate evaluates the request against the clock "now". Missing
// fields return ErrIncompleteSchedule and parse failures return
// ErrInvalidFormat; everything else comes back in the Result.
func (v *Validator) Validate(req Request, now time.Time) (Result, error) {
	if req.Date == "" || req.Time == "" || req.Timezone == "" {
		return Result{}, domain.ErrIncompleteSchedule
	}

	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return Result{}, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidFormat, req.Timezone)
	}

	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, req.Date+" "+req.Time, loc)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q %q", domain.ErrInvalidFormat, req.Date, req.Time)
	}

	result := Result{Valid: true, Start: start}
	localNow := now.In(loc)

	result.OutOfHours = v.outOfHours(start, req.DurationMinutes)

	switch req.ServiceLevel {
	case domain.ServiceLevelSameBusinessDay:
		if start.Format(dateLayout) != localNow.Format(dateLayout) {
			result.Valid = false
			result.Reasons = append(result.Reasons, "same business day jobs must be scheduled for today")
			break
		}
		if start.After(localNow.Add(sameDayWindow)) {
			result.Valid = false
			result.Reasons = append(result.Reasons, "same business day jobs must start within 4 hours")
			break
		}
		// Late in the day there may be fewer than 4 business hours
		// left; the booking still stands but the caller should expect
		// out-of-hours pricing if the work crosses the boundary.
		closing := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), v.cfg.BusinessHoursEnd, 0, 0, 0, loc)
		if closing.Sub(localNow) < sameDayWindow {
			result.Warnings = append(result.Warnings, "fewer than 4 business hours remain today; out-of-hours rates may apply")
		}

	case domain.ServiceLevelNextBusinessDay:
		tomorrow := localNow.AddDate(0, 0, 1)
		if start.Format(dateLayout) != tomorrow.Format(dateLayout) {
			result.Valid = false
			result.Reasons = append(result.Reasons, "next business day jobs must be scheduled for tomorrow")
		}

	case domain.ServiceLevelScheduled:
		if start.Before(now.Add(advanceNotice)) {
			result.Valid = false
			result.Reasons = append(result.Reasons, "scheduled jobs require at least 48 hours notice")
		}

	default:
		return Result{}, fmt.Errorf("%w: unknown service level %q", domain.ErrInvalidFormat, req.ServiceLevel)
	}

	return result, nil
}

// outOfHours reports whether any part of the booking falls outside the
// business-hours window. A start exactly at closing time with zero
// duration stays in hours; a booking that crosses the closing boundary
// does not.
func (v *Validator) outOfHours(start time.Time, durationMinutes int) bool {
	if start.Weekday() == time.Saturday || start.Weekday() == time.Sunday {
		return true
	}

	startMinutes := start.Hour()*60 + start.Minute()
	openMinutes := v.cfg.BusinessHoursStart * 60
	closeMinutes := v.cfg.BusinessHoursEnd * 60

	if startMinutes < openMinutes || startMinutes > closeMinutes {
		return true
	}

	return startMinutes+durationMinutes > closeMinutes
}
