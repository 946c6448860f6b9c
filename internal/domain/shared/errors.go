// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "run", "standings", "poller"
	Op      string // Operation that failed, e.g., "Normalize", "Commit"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Run domain errors
var (
	ErrRunNotFound      = NewDomainError("run", "Find", ErrNotFound, "no run matching that username")
	ErrMalformedEntry   = NewDomainError("run", "Normalize", ErrInvalidFormat, "leaderboard entry missing place or time")
	ErrUnknownTrack     = NewDomainError("run", "Parse", ErrInvalidInput, "unknown track shortform")
	ErrInvalidPlacement = NewDomainError("run", "Validate", ErrValueOutOfRange, "placement must be positive")
	ErrEmptyPlayerName  = NewDomainError("run", "Validate", ErrEmptyValue, "player name cannot be empty")
)

// Poller domain errors
var (
	ErrFetchFailed       = NewDomainError("poller", "Fetch", ErrExternalService, "leaderboard fetch failed")
	ErrMalformedResponse = NewDomainError("poller", "Fetch", ErrInvalidFormat, "leaderboard response has unexpected shape")
	ErrCycleInFlight     = NewDomainError("poller", "Run", ErrAlreadyExists, "a poll cycle is already in flight")
	ErrCommitFailed      = NewDomainError("poller", "Commit", ErrServiceUnavailable, "persisting cycle state failed")
)
