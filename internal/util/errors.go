package util

import (
	"errors"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeRateLimit           = "RATE_LIMIT_EXCEEDED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeMalformedMessage    = "MALFORMED_MESSAGE"
	ErrCodeConnectionLost      = "CONNECTION_LOST"
)

// NewAppError creates a new application error
func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// WrapError wraps an existing error
func WrapError(statusCode int, code, message string, err error) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

// Common error constructors

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, ErrCodeNotFound, message)
}

func ErrInternalServer(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, ErrCodeInternal, message)
}

func ErrRateLimit(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, ErrCodeRateLimit, message)
}

// ErrUpstreamUnavailable marks a failed fetch from the bot server
func ErrUpstreamUnavailable(message string, err error) *AppError {
	return WrapError(http.StatusBadGateway, ErrCodeUpstreamUnavailable, message, err)
}

// ErrMalformedMessage marks a push payload that could not be decoded
func ErrMalformedMessage(err error) *AppError {
	return WrapError(http.StatusUnprocessableEntity, ErrCodeMalformedMessage, "malformed push message", err)
}

// ErrConnectionLost marks a push channel that dropped
func ErrConnectionLost(channel string, err error) *AppError {
	return WrapError(http.StatusServiceUnavailable, ErrCodeConnectionLost, channel+" connection lost", err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err is an AppError carrying code
func HasCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
