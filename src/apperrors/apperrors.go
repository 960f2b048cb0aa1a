package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the common shape for errors crossing the service boundary.
// Controllers translate it to an HTTP status; everything else wraps and
// rethrows with %w so errors.As keeps working.
type AppError struct {
	StatusCode int    `json:"statusCode"`
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"detail"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...any) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "VALIDATION_ERROR",
		Message:    fmt.Sprintf(format, args...),
	}
}

func NewNotFoundError(format string, args ...any) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  "NOT_FOUND",
		Message:    fmt.Sprintf(format, args...),
	}
}

// NewStorageError wraps a persistence or blob I/O failure.
func NewStorageError(err error, format string, args ...any) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  "STORAGE_ERROR",
		Message:    fmt.Sprintf(format, args...),
		Err:        err,
	}
}

// NewTaskExecutionError wraps a failure raised by an async task handler.
func NewTaskExecutionError(err error, format string, args ...any) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  "TASK_EXECUTION_ERROR",
		Message:    fmt.Sprintf(format, args...),
		Err:        err,
	}
}

func IsValidation(err error) bool { return hasCode(err, "VALIDATION_ERROR") }
func IsNotFound(err error) bool   { return hasCode(err, "NOT_FOUND") }
func IsStorage(err error) bool    { return hasCode(err, "STORAGE_ERROR") }

func hasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode == code
	}
	return false
}

// StatusOf returns the HTTP status for an error, defaulting to 500 for
// anything that is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
