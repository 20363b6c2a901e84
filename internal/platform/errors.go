package platform

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is matched by any error caused by a 401 from the platform.
	ErrUnauthorized = errors.New("platform: unauthorized")

	// ErrFallbackMismatch is returned when degraded mode served a fixture that
	// does not decode into the caller's type.
	ErrFallbackMismatch = errors.New("platform: fallback data does not match response type")
)

// APIError is returned for any non-2xx platform response.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform: %s %s returned %d", e.Method, e.Endpoint, e.StatusCode)
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
