/*
errors.go - Centralized error types for the engine

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Other packages wrap these with additional context via fmt.Errorf %w.

ERROR CATEGORIES:
  1. Validation errors - rejected synchronously at the tracker boundary,
     surfaced to the caller as a message, no state change
  2. Not-found errors - a referenced record does not exist
  3. Session errors - state machine preconditions

USAGE:
  if errors.Is(err, engine.ErrSessionRunning) { ... }
  if engine.IsValidation(err) { respond 400 }

SEE ALSO:
  - tracker: returns these from Start/DeleteEntry
  - api: maps categories to HTTP status codes
*/
package engine

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSessionRunning is returned when Start is called while a session
	// is already open. The existing session is left untouched.
	ErrSessionRunning = errors.New("a session is already running")

	// ErrNoActivities is returned when Start is called before any activity
	// exists. Activities are a prerequisite for tracking.
	ErrNoActivities = errors.New("no activities exist to track against")

	// ErrEmptyActivityName rejects blank activity names.
	ErrEmptyActivityName = errors.New("activity name is empty")

	// ErrActivityNameTooLong rejects names over MaxActivityNameLen.
	ErrActivityNameTooLong = errors.New("activity name exceeds maximum length")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrActivityNotFound is returned when a referenced activity doesn't exist.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrEntryNotFound is returned when a referenced time entry doesn't exist.
	ErrEntryNotFound = errors.New("time entry not found")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input or
// an unmet precondition, as opposed to a storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSessionRunning) ||
		errors.Is(err, ErrNoActivities) ||
		errors.Is(err, ErrEmptyActivityName) ||
		errors.Is(err, ErrActivityNameTooLong)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrActivityNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
