package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorCode is the stable, machine-readable identifier callers switch on.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeCompletedShipment ErrorCode = "COMPLETED_SHIPMENT"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeDuplicateStatus   ErrorCode = "DUPLICATE_STATUS"
	CodeVersionConflict   ErrorCode = "VERSION_CONFLICT"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeCourierFailure    ErrorCode = "NIMBUS_API_FAILURE"
	CodeRateLimited       ErrorCode = "RATE_LIMITED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

var (
	ErrShipmentNotFound   = errors.New("shipment not found")
	ErrCompletedShipment  = errors.New("shipment is completed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateStatus    = errors.New("shipment already has this status")
	ErrVersionConflict    = errors.New("shipment version conflict")
	ErrValidation         = errors.New("validation failed")
	ErrCourierFailure     = errors.New("courier api failure")
	ErrRateLimited        = errors.New("rate limited")
	ErrDuplicateReference = errors.New("booking reference already exists")
)

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CodeOf maps an error chain to its stable code. Unknown errors are internal.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrShipmentNotFound):
		return CodeNotFound
	case errors.Is(err, ErrCompletedShipment):
		return CodeCompletedShipment
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrDuplicateStatus):
		return CodeDuplicateStatus
	case errors.Is(err, ErrVersionConflict):
		return CodeVersionConflict
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrCourierFailure):
		return CodeCourierFailure
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	}
	return CodeInternal
}

// IsDomainError reports whether err carries one of the typed codes above.
func IsDomainError(err error) bool {
	c := CodeOf(err)
	return c != "" && c != CodeInternal
}

// HTTPStatus returns the status code a transport layer should use for code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeCompletedShipment:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeDuplicateStatus, CodeValidation:
		return http.StatusBadRequest
	case CodeVersionConflict:
		return http.StatusConflict
	case CodeCourierFailure:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
