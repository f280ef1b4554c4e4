package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a domain error so the HTTP boundary can map it to a status
// code without inspecting message text.
type Kind string

const (
	// KindValidation marks malformed, missing, or contradictory input.
	KindValidation Kind = "validation"
	// KindNotFound marks an absent entity, or a credential mismatch disguised
	// as not-found for enumeration resistance.
	KindNotFound Kind = "not_found"
	// KindConflict marks a uniqueness violation.
	KindConflict Kind = "conflict"
	// KindInternal marks a downstream dependency failure.
	KindInternal Kind = "internal"
)

// Error is a domain error carrying a kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// IsKind reports whether err is (or wraps) a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ErrorResponse represents a standardized error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if !errors.As(err, &e) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	switch e.Kind {
	case KindValidation:
		return NewHTTPError(http.StatusBadRequest, e.Message, "VALIDATION_ERROR")
	case KindNotFound:
		return NewHTTPError(http.StatusNotFound, e.Message, "NOT_FOUND")
	case KindConflict:
		return NewHTTPError(http.StatusConflict, e.Message, "CONFLICT")
	case KindInternal:
		return NewHTTPError(http.StatusInternalServerError, e.Message, "INTERNAL_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
