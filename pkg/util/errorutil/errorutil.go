package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Error codes shared by the client layers.
const (
	CodeValidation     = "VALIDATION_FAILED"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeNetwork        = "NETWORK_ERROR"
	CodePartialSuccess = "PARTIAL_SUCCESS"
	CodeBusy           = "BUSY"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeBackend        = "BACKEND_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldValidationError wraps per-field messages under details["fields"].
func NewFieldValidationError(fields map[string]string) error {
	return NewValidationError("validation failed", map[string]any{"fields": fields})
}

// FromValidation converts ozzo validation output into a field-scoped validation error.
// Returns nil when err is nil.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
		return NewFieldValidationError(fields)
	}
	return NewValidationError(err.Error(), nil)
}

// FieldErrors returns the per-field messages carried by a validation error.
func FieldErrors(err error) map[string]string {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != CodeValidation {
		return nil
	}
	fields, _ := domainErr.Details["fields"].(map[string]string)
	return fields
}

// NewAuthError reports a failed login, registration or logout.
func NewAuthError(message string, details map[string]any) error {
	return NewDomainError(CodeAuthFailed, message, http.StatusUnauthorized, details)
}

// NewNetworkError reports a request that never received a response.
func NewNetworkError(err error) error {
	return &DomainError{
		Code:       CodeNetwork,
		Message:    "backend unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewBusy rejects an operation while another one is still in flight.
func NewBusy(operation string) error {
	return NewDomainError(CodeBusy, fmt.Sprintf("%s already in progress", operation), http.StatusConflict, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewBackendError reports an unexpected backend status.
func NewBackendError(status int, message string) error {
	return NewDomainError(CodeBackend, message, http.StatusBadGateway, map[string]any{"status": status})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// PartialSuccessError means the primary entity exists but a dependent step failed.
// The primary entity is not rolled back.
type PartialSuccessError struct {
	MovieID int64
	Step    string
	Err     error
}

func (e *PartialSuccessError) Error() string {
	return fmt.Sprintf("movie %d created, but %s failed: %v", e.MovieID, e.Step, e.Err)
}

func (e *PartialSuccessError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	return ToDomainError(err).Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var partial *PartialSuccessError
	if errors.As(err, &partial) {
		details := map[string]any{"movieId": partial.MovieID, "step": partial.Step}
		if cause := ToDomainError(partial.Err); cause != nil {
			details["cause"] = cause.Message
		}
		return &DomainError{
			Code:       CodePartialSuccess,
			Message:    fmt.Sprintf("movie created, but %s failed", partial.Step),
			HTTPStatus: http.StatusMultiStatus,
			Details:    details,
			Err:        partial.Err,
		}
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if de, ok := NewNetworkError(err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

