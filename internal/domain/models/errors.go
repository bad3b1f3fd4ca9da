package models

import (
	"errors"
	"fmt"
)

// Sentinels for the error taxonomy; match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNetwork    = errors.New("network error")
	ErrServer     = errors.New("server error")
	ErrAuth       = errors.New("auth error")
)

// ValidationError is raised locally, before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError means the request could not be sent or no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError is a non-2xx answer from the remote API.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server responded %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// AuthError means the session is missing, expired or was rejected upstream.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "not authenticated"
	}
	return "not authenticated: " + e.Reason
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// UserMessage turns an error from the taxonomy into the short text shown in a
// notification.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrAuth):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the SellSmart server. Please try again."
	case errors.Is(err, ErrServer):
		var se *ServerError
		if errors.As(err, &se) && se.Message != "" {
			return se.Message
		}
		return "The SellSmart server rejected the request."
	default:
		return "Something went wrong."
	}
}
