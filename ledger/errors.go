/*
errors.go - Centralized error types for the reward engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Callers (HTTP handlers) map these to status codes with errors.Is.

ERROR CATEGORIES:
  1. Validation errors - rejected before any state change
  2. Storage errors - persistence failures, whole unit rolled back
  3. Not-found errors - missing users on the read path

NOTE:
  "Cap reached" is NOT an error. Recording the raw activity is still a
  success; the recorder reports it as a zero-coin outcome with a
  distinguishing message.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMagnitude is returned when a measurement is zero or negative.
	// Rejected before the pricing policy or store are touched.
	ErrInvalidMagnitude = errors.New("magnitude must be a positive integer")

	// ErrUnknownActivityType is returned for activity types other than
	// STEPS or WORKOUT.
	ErrUnknownActivityType = errors.New("unknown activity type")

	// ErrStorageFailure is returned when the atomic write or a read failed
	// at the persistence layer. Retryable; no partial state is committed.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUserNotFound is returned by profile reads for a nonexistent user.
	ErrUserNotFound = errors.New("user not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidMagnitudeError reports the rejected input value.
type InvalidMagnitudeError struct {
	Type  ActivityType
	Value int64
}

func (e *InvalidMagnitudeError) Error() string {
	return fmt.Sprintf("invalid %s magnitude %d: must be >= 1", e.Type, e.Value)
}

func (e *InvalidMagnitudeError) Unwrap() error {
	return ErrInvalidMagnitude
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMagnitude) ||
		errors.Is(err, ErrUnknownActivityType)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
