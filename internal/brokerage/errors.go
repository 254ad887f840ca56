package brokerage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the bearer token was rejected. Callers
	// should surface a re-login prompt, not retry.
	ErrUnauthenticated = errors.New("brokerage: unauthenticated")

	// ErrServiceUnavailable means the circuit breaker is open and the
	// request was not attempted.
	ErrServiceUnavailable = errors.New("brokerage: service unavailable")
)

// APIError is a non-2xx response whose body carried a server message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("brokerage: http %d", e.Status)
	}
	return fmt.Sprintf("brokerage: http %d: %s", e.Status, e.Message)
}
