package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNetworkFailure     = errors.New("booking service is unreachable")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrActionInFlight     = errors.New("a request for this action is already in progress")
	ErrLedgerNotLoaded    = errors.New("seat map has not been loaded")
	ErrInvalidSeatNumber  = errors.New("seat number out of range")
	ErrUnexpectedResponse = errors.New("unexpected response format")
)

// RejectionError is returned when the booking service answers with a non-2xx
// status. Message holds the server supplied message, if any.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking service rejected the request with status %d", e.StatusCode)
	}

	return fmt.Sprintf("booking service rejected the request with status %d: %s", e.StatusCode, e.Message)
}

// Is lets callers test a 401 rejection against ErrUnauthenticated.
func (e *RejectionError) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// RejectionMessage returns the server supplied message carried by err, or
// fallback when there is none.
func RejectionMessage(err error, fallback string) string {
	var rejection *RejectionError
	if errors.As(err, &rejection) && rejection.Message != "" {
		return rejection.Message
	}

	return fallback
}
