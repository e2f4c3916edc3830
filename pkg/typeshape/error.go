package typeshape

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/toyz/typeshape/internal/errors"
)

// ErrUnknownOperation is returned for operation names the model does not declare
var ErrUnknownOperation = stderrors.New("unknown operation")

// HttpError represents an HTTP error with a specific status code and message
type HttpError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHttpError creates a new HttpError with the given status code and message
func NewHttpError(statusCode int, message string) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewHttpErrorWithDetails creates a new HttpError with additional details
func NewHttpErrorWithDetails(statusCode int, message string, details any) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
		Details:    details,
	}
}

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message)
}

// ErrBadRequestWithDetails creates a 400 Bad Request error with details
func ErrBadRequestWithDetails(message string, details any) *HttpError {
	return NewHttpErrorWithDetails(http.StatusBadRequest, message, details)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message)
}

// ErrUnprocessableEntityWithDetails creates a 422 Unprocessable Entity error with validation details
func ErrUnprocessableEntityWithDetails(message string, details any) *HttpError {
	return NewHttpErrorWithDetails(http.StatusUnprocessableEntity, message, details)
}

// ErrInternalServerError creates a 500 Internal Server Error
func ErrInternalServerError(message string) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message)
}

// AsHttpError maps err onto the HTTP error reported to a caller. Handler errors
// that are not HttpErrors become 500s; binding failures keep their own status.
func AsHttpError(err error) *HttpError {
	var httpErr *HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr
	}

	var validation ValidationErrors
	if stderrors.As(err, &validation) {
		return ErrUnprocessableEntityWithDetails("validation failed", validation)
	}

	switch {
	case stderrors.Is(err, ErrUnknownOperation):
		return ErrNotFound(err.Error())
	case errors.HasCode(err, errors.InvalidArgumentErrorCode):
		return ErrBadRequest(err.Error())
	}
	return ErrInternalServerError(err.Error())
}
