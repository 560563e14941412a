package journal

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when a run is not found.
	ErrNotFound = errors.New("run not found")

	// ErrDuplicateID is returned when creating a run with an existing ID.
	ErrDuplicateID = errors.New("run with this ID already exists")

	// ErrConnectionFailed is returned when the database cannot be opened.
	ErrConnectionFailed = errors.New("journal database connection failed")

	// ErrMigrationFailed is returned when schema migration fails.
	ErrMigrationFailed = errors.New("journal migration failed")
)

// JournalError wraps errors with operation context.
type JournalError struct {
	Op      string // Operation that failed (e.g., "CreateRun")
	RunID   string
	Message string
	Err     error
}

func (e *JournalError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s run %s: %s", e.Op, e.RunID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *JournalError) Unwrap() error {
	return e.Err
}

// NewJournalError creates a wrapped journal error.
func NewJournalError(op, runID, message string, err error) *JournalError {
	return &JournalError{Op: op, RunID: runID, Message: message, Err: err}
}
