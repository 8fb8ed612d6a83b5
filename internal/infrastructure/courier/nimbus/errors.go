package nimbus

import (
	"fmt"
	"net/http"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
)

// APIError is returned once every attempt of an operation has failed.
// It matches domain.ErrCourierFailure under errors.Is.
type APIError struct {
	// StatusCode is the last HTTP status seen, or 0 when no response arrived.
	StatusCode int
	Attempts   int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("courier api failure after %d attempts (status %d): %v", e.Attempts, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == domain.ErrCourierFailure }

// StatusError is a single non-2xx response.
type StatusError struct {
	APIType    domain.APIType
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.APIType, e.StatusCode)
}

// unauthorized reports a rejected bearer token. A 401 from the auth endpoint
// itself means bad credentials and is retried like any other failure.
func (e *StatusError) unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized && e.APIType != domain.APITypeAuth
}
