package apperror

import (
	"errors"
	"net/http"
)

// Error is the structured error carried from the service layer to the HTTP
// boundary. StatusCode decides the response status, Errors holds optional
// field-level detail.
type Error struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *Error) Error() string {
	return e.Message
}

func New(statusCode int, message string, subErrors ...string) *Error {
	return &Error{StatusCode: statusCode, Message: message, Errors: subErrors}
}

func Validation(message string, subErrors ...string) *Error {
	return New(http.StatusBadRequest, message, subErrors...)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// From passes structured errors through unchanged and wraps anything else
// as an internal error, keeping the original message for diagnostics.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err.Error())
}
