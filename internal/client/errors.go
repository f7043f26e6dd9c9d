package client

import (
	"errors"
	"fmt"
)

// The dispatcher classifies every failed call exactly once, at its own
// boundary, into one of the error kinds below. Rate-limited responses are
// an internal signal and never reach the caller; everything else settles
// the caller immediately.

// ValidationError is a 400: the server rejected a malformed filter or
// entity field. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// AuthError is a 401: the credential is missing, invalid or expired.
// Never retried; raising it also signals the session collaborator to
// invalidate local credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Message
}

// NotFoundError is a 404: the entity is absent or not owned by the
// caller. Never retried.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Message
}

// ServerError is any other HTTP failure status (remaining 4xx and all
// 5xx). Surfaced immediately, never retried by this client.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure: the request never produced
// an HTTP response. Surfaced immediately, never retried.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ErrDispatcherClosed settles any request still pending when the
// dispatcher is shut down.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// errRateLimited marks a 429 internally. It never settles a caller; the
// dispatcher requeues the request instead.
var errRateLimited = errors.New("rate limited")
