// Package shared contains common domain types, errors, and events used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors for checking with errors.Is().
// These four kinds form the engine's error taxonomy: everything surfaced to
// callers unwraps to exactly one of them.
var (
	// ErrNotFound - a referenced challenge, lesson, achievement, or session
	// does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict - a duplicate write was attempted. Where idempotence is
	// specified (achievement grants, leaderboard non-bests) the conflict is
	// recovered locally and never surfaced.
	ErrConflict = errors.New("conflicting state")

	// ErrUpstreamFailure - an external collaborator (scoring oracle) failed
	// or timed out. The triggering operation persists nothing.
	ErrUpstreamFailure = errors.New("upstream service failure")

	// ErrInvariantViolation - input that would corrupt derived state
	// (e.g. a score outside [0,100]) was rejected before any mutation.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Secondary validation errors, all of kind ErrInvariantViolation when wrapped.
var (
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrInvalidEventKind = errors.New("unknown activity event kind")
	ErrFutureTimestamp  = errors.New("timestamp cannot be in the future")
)

// DomainError carries structured context about a domain failure.
type DomainError struct {
	Domain  string // e.g. "stats", "leaderboard", "achievement"
	Op      string // operation that failed, e.g. "RecordScore"
	Kind    error  // one of the base errors, for errors.Is() matching
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against both the kind and the wrapped error.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a domain error without an underlying cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError wraps an underlying error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Well-known domain errors.
var (
	ErrChallengeNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "challenge not found")
	ErrLessonNotFound    = NewDomainError("ledger", "Find", ErrNotFound, "lesson not found")
	ErrSessionNotFound   = NewDomainError("practice", "Find", ErrNotFound, "practice session not found")
	ErrScoreOutOfRange   = NewDomainError("stats", "Validate", ErrInvariantViolation, "score must be between 0 and 100")
	ErrOracleUnavailable = NewDomainError("oracle", "Score", ErrUpstreamFailure, "scoring oracle unavailable")
)
