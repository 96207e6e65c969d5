package envelope

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/shareserver/internal/params"
)

// ErrorCode is a stable, enumerable failure category exposed to clients.
type ErrorCode string

const (
	// CodeAuth: not logged in, or privilege below the procedure's minimum.
	CodeAuth ErrorCode = "AUTH"

	// CodeParameter: a parameter was missing or malformed.
	CodeParameter ErrorCode = "PARAMETER"

	// CodeUnknownProcedure: no procedure is registered under the name.
	CodeUnknownProcedure ErrorCode = "UNKNOWN_PROCEDURE"

	// CodeUnknown: an unclassified failure. The message is still surfaced.
	CodeUnknown ErrorCode = "UNKNOWN"

	// CodeNotFound: the referenced entity does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeStorage: the blob store failed.
	CodeStorage ErrorCode = "STORAGE"

	// CodeDatabase: the relational store failed.
	CodeDatabase ErrorCode = "DATABASE"
)

var knownCodes = map[ErrorCode]bool{
	CodeAuth:             true,
	CodeParameter:        true,
	CodeUnknownProcedure: true,
	CodeUnknown:          true,
	CodeNotFound:         true,
	CodeStorage:          true,
	CodeDatabase:         true,
}

// Known reports whether code belongs to the fixed code set.
func Known(code ErrorCode) bool {
	return knownCodes[code]
}

// Codes returns every known code. Order is unspecified.
func Codes() []ErrorCode {
	out := make([]ErrorCode, 0, len(knownCodes))
	for code := range knownCodes {
		out = append(out, code)
	}
	return out
}

// Error is a failure a handler classifies itself. Message is the text shown
// to the client; Err is the underlying cause and is only logged.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error with no underlying cause.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a classified error around an underlying cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Coder is implemented by errors from lower layers that know their own code
// without importing this package. ErrorCode must return one of the known
// code strings; anything else maps to CodeUnknown.
type Coder interface {
	ErrorCode() string
}

// Wrap maps any error to a known code. It is total: nil and unrecognized
// errors map to CodeUnknown.
func Wrap(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var classified *Error
	if errors.As(err, &classified) {
		if Known(classified.Code) {
			return classified.Code
		}
		return CodeUnknown
	}

	if params.IsParameterError(err) {
		return CodeParameter
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, sql.ErrNoRows) {
		return CodeNotFound
	}

	var coder Coder
	if errors.As(err, &coder) {
		if code := ErrorCode(coder.ErrorCode()); Known(code) {
			return code
		}
		return CodeUnknown
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, fs.ErrExist) {
		return CodeStorage
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return CodeDatabase
	}

	return CodeUnknown
}

// MessageOf returns the client-facing message for err: the Message of the
// outermost *Error if there is one, otherwise err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) && classified.Message != "" {
		return classified.Message
	}
	return err.Error()
}
