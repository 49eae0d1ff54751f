package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when login is rejected by the backend.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is returned when the bearer token is expired or rejected.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotAuthenticated is returned when an operation needs a session and none exists.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrLocationUnavailable is returned when no device position can be obtained.
	ErrLocationUnavailable = errors.New("location unavailable")
)

// AuthError wraps an authentication failure with the backend's detail message
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("auth: %s", e.Detail)
	}
	return fmt.Sprintf("auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError is a client-side form check failure. No request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError is a transport-level request failure
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExternalServiceError is a failure of a third-party service such as routing
// or device geolocation
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuth reports whether err is an authentication failure
func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrNotAuthenticated)
}

// Detailer is implemented by errors that carry a server-supplied message
type Detailer interface {
	ErrorDetail() string
}

// UserMessage returns the message to show inline for err: the validation
// message, the backend-supplied detail when there is one, or fallback
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	var a *AuthError
	if errors.As(err, &a) && a.Detail != "" {
		return a.Detail
	}
	var d Detailer
	if errors.As(err, &d) && d.ErrorDetail() != "" {
		return d.ErrorDetail()
	}
	return fallback
}
