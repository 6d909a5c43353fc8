package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
)

// AppError is a domain error carrying its kind and a stable machine-readable code.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches another *AppError with the same code, so sentinels survive wrapping
// and WithMessage copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// New creates an AppError.
func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

var (
	// ErrUserAlreadyExists is returned when the username or email is taken.
	ErrUserAlreadyExists = New(KindConflict, "USER_ALREADY_EXISTS", "username or email already exists")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = New(KindUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	// ErrUnauthorized is returned when a request carries no usable identity.
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "missing or invalid authorization")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	// ErrEventNotFound is returned when an event lookup misses.
	ErrEventNotFound = New(KindNotFound, "EVENT_NOT_FOUND", "event not found")
	// ErrNotOrganizer is returned when the caller does not organize the event.
	ErrNotOrganizer = New(KindForbidden, "NOT_ORGANIZER", "only the organizer can perform this action")
	// ErrRoleRequired is returned when the caller's role lacks a capability.
	ErrRoleRequired = New(KindForbidden, "ROLE_REQUIRED", "your role does not allow this action")
	// ErrInvalidRSVP is returned for an RSVP response outside going/maybe/pass.
	ErrInvalidRSVP = New(KindValidation, "INVALID_RSVP", "response must be one of going, maybe, pass")
	// ErrValidation is the generic input validation error.
	ErrValidation = New(KindValidation, "VALIDATION_ERROR", "invalid request")
)

// ErrorResponse represents a standardized error response.
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

// StatusFor returns the HTTP status for an error kind.
// Conflicts answer 400, matching the public signup contract.
func StatusFor(kind Kind) int {
	switch kind {
	case KindConflict, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return NewHTTPError(StatusFor(appErr.Kind), appErr.Message, appErr.Code)
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
