package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType is the errorKind reported to clients.
type ErrorType string

const (
	// Query pipeline errors
	ErrorTypeUnresolvedVersion       ErrorType = "UnresolvedVersion"
	ErrorTypeMalformedQuery          ErrorType = "MalformedQuery"
	ErrorTypeUnknownField            ErrorType = "UnknownField"
	ErrorTypeInvalidFilterExpression ErrorType = "InvalidFilterExpression"

	// Application errors
	ErrorTypeNotFound ErrorType = "NotFound"
	ErrorTypeInternal ErrorType = "Internal"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"errorKind"`
	Message    string                 `json:"message"`
	Field      string                 `json:"field,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// NewUnresolvedVersionError reports a version token with no registered handler.
func NewUnresolvedVersionError(token string) *AppError {
	msg := "no api version was specified and no default is configured"
	if token != "" {
		msg = fmt.Sprintf("api version '%s' is not supported", token)
	}
	return &AppError{
		Type:       ErrorTypeUnresolvedVersion,
		Message:    msg,
		Field:      token,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewMalformedQueryError reports a syntactically invalid directive.
func NewMalformedQueryError(directive, format string, args ...interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedQuery,
		Message:    fmt.Sprintf(format, args...),
		Field:      directive,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnknownFieldError reports a reference to a field the record does not have.
func NewUnknownFieldError(field string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnknownField,
		Message:    fmt.Sprintf("field '%s' does not exist", field),
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidFilterError reports a type mismatch or unsupported operator in a filter.
func NewInvalidFilterError(field, format string, args ...interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidFilterExpression,
		Message:    fmt.Sprintf(format, args...),
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsQueryError reports whether err is one of the client-correctable query pipeline kinds.
func IsQueryError(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Type {
	case ErrorTypeUnresolvedVersion, ErrorTypeMalformedQuery, ErrorTypeUnknownField, ErrorTypeInvalidFilterExpression:
		return true
	}
	return false
}
