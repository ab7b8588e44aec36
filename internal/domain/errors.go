package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNotSupported = errors.New("not supported by venue")
	ErrInvalidOrder = errors.New("invalid order parameters")
	ErrUnauthorized = errors.New("unauthorized")
)

// TransientNetworkError wraps a failure that may succeed on retry: transport
// errors, timeouts, HTTP 5xx and rate-limit responses.
type TransientNetworkError struct {
	Venue Venue
	Op    string
	Err   error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: %s: transient: %v", e.Venue, e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// UnsupportedExchangeError is returned when a venue tag has no adapter.
type UnsupportedExchangeError struct {
	Venue Venue
}

func (e *UnsupportedExchangeError) Error() string {
	return fmt.Sprintf("unsupported exchange %q", string(e.Venue))
}

// MissingContractError is returned when no contract metadata matches.
type MissingContractError struct {
	Venue    Venue
	Contract string
}

func (e *MissingContractError) Error() string {
	return fmt.Sprintf("%s: contract %s not found", e.Venue, e.Contract)
}

func (e *MissingContractError) Unwrap() error { return ErrNotFound }

// MarginError is a venue rejection caused by insufficient margin or risk
// limits.
type MarginError struct {
	Venue   Venue
	Code    string
	Message string
}

func (e *MarginError) Error() string {
	return fmt.Sprintf("%s: margin rejected: %s (%s)", e.Venue, e.Message, e.Code)
}

// APIError is any other business rejection reported by a venue.
type APIError struct {
	Venue   Venue
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s (%s)", e.Venue, e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Venue, e.Message, e.Code)
}

// IsTransient reports whether err is, or wraps, a TransientNetworkError.
func IsTransient(err error) bool {
	var te *TransientNetworkError
	return errors.As(err, &te)
}

// IsMargin reports whether err is, or wraps, a MarginError.
func IsMargin(err error) bool {
	var me *MarginError
	return errors.As(err, &me)
}
