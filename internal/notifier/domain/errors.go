package domain

import "errors"

var (
	// ErrJobNotFound is returned when the event references a job that
	// does not exist in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidPayload is returned when an event body is malformed
	ErrInvalidPayload = errors.New("invalid event payload")

	// ErrMaxAttemptsExceeded is returned when a notification has failed
	// more times than the configured limit
	ErrMaxAttemptsExceeded = errors.New("max delivery attempts exceeded")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
