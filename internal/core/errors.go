package core

import "errors"

// Sentinel errors. Operations wrap them with context using %w; callers
// classify with errors.Is.
var (
	// ErrInvalidTable is returned for an empty or unregistered table name.
	ErrInvalidTable = errors.New("invalid table")

	// ErrInvalidParams is returned when required parameters are missing or malformed.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrNotFound is returned when an identifier matches no row.
	ErrNotFound = errors.New("not found")

	// ErrLockTimeout is returned when the gate cannot be acquired in time.
	ErrLockTimeout = errors.New("lock timeout: another request is in progress")

	// ErrInvalidTransition is returned for a workflow state change that is not allowed.
	ErrInvalidTransition = errors.New("invalid transition")
)

// IsValidation reports whether err is a caller error rather than a fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidTable) ||
		errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, ErrInvalidTransition)
}
