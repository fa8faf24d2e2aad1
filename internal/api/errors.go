// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yard-planner/backend/internal/interaction"
	"github.com/yard-planner/backend/internal/session"
	"github.com/yard-planner/backend/internal/settings"
	"github.com/yard-planner/backend/internal/yard"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewPayloadTooLargeError creates a 413 Request Entity Too Large error
func NewPayloadTooLargeError(message string) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "PAYLOAD_TOO_LARGE",
		Message: message,
	}
}

// NewRejectedError creates a 422 error for a move the placement rules refuse.
// Message carries the operator-facing text and Details the rejection kind.
func NewRejectedError(rej *yard.RejectionError) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "PLACEMENT_REJECTED",
		Message: rej.Message(),
		Details: string(rej.Kind),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = toAPIError(err)
	}

	// Send JSON response
	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}

// ExposeErrorDetails controls whether unexpected errors include their text.
var ExposeErrorDetails = true

// toAPIError maps domain errors onto API errors.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if rej, ok := yard.AsRejection(err); ok {
		return NewRejectedError(rej)
	}

	var unknown *yard.UnknownUnitError
	var dup *yard.DuplicateUnitError
	switch {
	case errors.As(err, &unknown):
		return NewNotFoundError("container", unknown.ID)
	case errors.As(err, &dup):
		return NewConflictError(err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "SESSION_NOT_FOUND", Message: "yard session not found or expired"}
	case errors.Is(err, yard.ErrEmptyQuery),
		errors.Is(err, yard.ErrTruckNumber),
		errors.Is(err, interaction.ErrUnknownTarget):
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, yard.ErrNoMatches):
		return &APIError{Status: http.StatusNotFound, Code: "NO_MATCHES", Message: err.Error()}
	case errors.Is(err, settings.ErrUnknownFontSize),
		errors.Is(err, settings.ErrUnknownDarkMode),
		errors.Is(err, settings.ErrInvalidTimeout):
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: err.Error()}
	}

	apiErr = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "UNKNOWN_ERROR",
		Message: "An unexpected error occurred",
	}
	if ExposeErrorDetails {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
