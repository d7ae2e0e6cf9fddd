package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error codes identify the kind of failure that ended a lookup cycle.
const (
	// CodeValidation marks local input validation failures; no request was issued
	CodeValidation = "VALIDATION_ERROR"

	// CodeNotFound marks a place name without any geocoding match
	CodeNotFound = "NOT_FOUND"

	// CodeTransport marks network failures, timeouts, non-success statuses and unparseable bodies
	CodeTransport = "TRANSPORT_ERROR"

	// CodeMalformedResponse marks a response whose shape violates the provider contract
	CodeMalformedResponse = "MALFORMED_RESPONSE"

	// CodePermissionDenied marks a refused device geolocation request
	CodePermissionDenied = "PERMISSION_DENIED"

	// CodeLocationUnavailable marks a device without geolocation support
	CodeLocationUnavailable = "LOCATION_UNAVAILABLE"
)

// WeatherError represents domain-specific errors that can occur during weather operations.
// It provides structured error information with error codes and optional underlying causes.
type WeatherError struct {
	// Code identifies the type of error for programmatic handling
	Code string

	// Message provides a human-readable error description
	Message string

	// Cause wraps an underlying error if applicable
	Cause error
}

// Error implements the error interface for WeatherError.
// It formats the error message to include the code, message, and underlying cause.
func (e *WeatherError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *WeatherError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a WeatherError of the same kind.
// This lets callers match with errors.Is(err, domain.ErrNotFound).
func (e *WeatherError) Is(target error) bool {
	var t *WeatherError

	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// Sentinels for errors.Is matching. They carry no message or cause.
var (
	ErrValidation          = &WeatherError{Code: CodeValidation}
	ErrNotFound            = &WeatherError{Code: CodeNotFound}
	ErrTransport           = &WeatherError{Code: CodeTransport}
	ErrMalformedResponse   = &WeatherError{Code: CodeMalformedResponse}
	ErrPermissionDenied    = &WeatherError{Code: CodePermissionDenied}
	ErrLocationUnavailable = &WeatherError{Code: CodeLocationUnavailable}
)

// NewValidationError reports invalid user input.
func NewValidationError(message string) *WeatherError {
	return &WeatherError{Code: CodeValidation, Message: message}
}

// NewNotFoundError reports a place name the provider could not match.
func NewNotFoundError(message string) *WeatherError {
	return &WeatherError{Code: CodeNotFound, Message: message}
}

// NewTransportError reports a failed provider call.
func NewTransportError(message string, cause error) *WeatherError {
	return &WeatherError{Code: CodeTransport, Message: message, Cause: cause}
}

// NewMalformedResponseError reports a provider response that breaks the documented contract.
func NewMalformedResponseError(message string, cause error) *WeatherError {
	return &WeatherError{Code: CodeMalformedResponse, Message: message, Cause: cause}
}

// NewPermissionDeniedError reports that the user refused device geolocation.
func NewPermissionDeniedError(message string) *WeatherError {
	return &WeatherError{Code: CodePermissionDenied, Message: message}
}

// NewLocationUnavailableError reports that device geolocation is not available.
func NewLocationUnavailableError(message string) *WeatherError {
	return &WeatherError{Code: CodeLocationUnavailable, Message: message}
}

// ErrorCode classifies any error into one of the error codes.
// Errors that carry no WeatherError, including context cancellation and deadline
// expiry, are transport failures.
func ErrorCode(err error) string {
	var e *WeatherError

	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}

	return CodeTransport
}

// userMessages are the texts shown to the user for each error code.
var userMessages = map[string]string{
	CodeValidation:          "Please enter a city name",
	CodeNotFound:            "City not found",
	CodeTransport:           "Failed to fetch weather data",
	CodeMalformedResponse:   "Received an unexpected response from the weather provider",
	CodePermissionDenied:    "Location access denied.",
	CodeLocationUnavailable: "Geolocation is not supported by your browser.",
}

// UserMessage returns the single user-visible message for an error.
// Validation errors carry their own message since the input that failed varies.
func UserMessage(err error) string {
	var e *WeatherError

	if errors.As(err, &e) && e.Code == CodeValidation && e.Message != "" {
		return e.Message
	}

	return userMessages[ErrorCode(err)]
}

// IsTimeout reports whether err was caused by a deadline expiring.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
