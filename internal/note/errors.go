package note

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a note (or a collaborator entry) does not
	// exist. It is always checked before any role resolution.
	ErrNotFound = errors.New("note not found")

	// ErrStaleEdit is returned when an update carries an edit sequence number
	// not greater than the one already persisted. The write has no effect.
	ErrStaleEdit = errors.New("stale edit sequence")
)

// ValidationError rejects malformed input before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PermissionError carries the minimum required role and the role the caller
// actually resolved to. It never includes note content.
type PermissionError struct {
	Required Role
	Actual   Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: requires %s, have %s", e.Required, e.Actual)
}
