package elevenlabs

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no API key is configured.
var ErrNotConfigured = errors.New("elevenlabs: api key not configured")

// APIError is a non-success response from the platform.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to %s: %d - %s", e.Op, e.StatusCode, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// retryableError marks errors that should trigger a retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
