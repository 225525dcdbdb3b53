package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when the requested action has no
	// edge from the job's current status
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConcurrentModification is returned when a conditional status
	// update lost to another writer; callers re-read and retry
	ErrConcurrentModification = errors.New("job was modified concurrently")

	// ErrAlreadyAccepted is returned to losing suppliers in a
	// competitive acceptance race
	ErrAlreadyAccepted = errors.New("job already accepted by another supplier")

	// ErrSupplierMismatch is returned when a supplier acts on a job
	// that is routed to a different supplier
	ErrSupplierMismatch = errors.New("job is routed to a different supplier")

	// ErrTokenInvalid is returned for unknown or malformed engineer
	// tokens and short codes. The message is deliberately generic.
	ErrTokenInvalid = errors.New("link is invalid or has expired")

	// ErrIncompleteSchedule is returned when date, time, or timezone is missing
	ErrIncompleteSchedule = errors.New("incomplete schedule: date, time, and timezone are required")

	// ErrInvalidFormat is returned when a date/time/timezone fails to parse
	ErrInvalidFormat = errors.New("invalid schedule format")

	// ErrScheduleRuleViolation is returned when a well-formed schedule
	// breaks a service-level rule; no partial state is created
	ErrScheduleRuleViolation = errors.New("schedule rule violation")

	// ErrPricingUnavailable is returned when no supplier rate covers the
	// requested service and area
	ErrPricingUnavailable = errors.New("no supplier coverage for the requested service and area")

	// ErrExternalLookupFailed is returned by the distance resolver; the
	// caller recovers by falling back to a zero remote-site fee
	ErrExternalLookupFailed = errors.New("external distance lookup failed")

	// ErrReportIncomplete is returned when a completion request is
	// missing the signature or the work summary
	ErrReportIncomplete = errors.New("site visit report requires a signature and a work summary")
)
