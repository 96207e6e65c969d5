package store

import (
	"database/sql"
	"fmt"
)

// ErrNotFound is returned when no row matches. It wraps sql.ErrNoRows.
var ErrNotFound = fmt.Errorf("record not found: %w", sql.ErrNoRows)

// Error wraps a failure reported by the database driver.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode classifies every driver failure as a database error on the wire.
func (e *Error) ErrorCode() string {
	return "DATABASE"
}
