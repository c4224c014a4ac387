package core

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when no object exists at the requested
	// location. Aliased to fs.ErrNotExist so errors.Is interoperates
	// with stdlib callers.
	ErrNotFound = fs.ErrNotExist

	// ErrAlreadyExists is returned when a conditional write finds its
	// target occupied. Aliased to fs.ErrExist.
	ErrAlreadyExists = fs.ErrExist

	// ErrPermission is returned for backend-reported access failures.
	// Aliased to fs.ErrPermission.
	ErrPermission = fs.ErrPermission

	// ErrInvalidRange is returned when a requested byte range exceeds
	// the object's bounds.
	ErrInvalidRange = errors.New("invalid byte range")

	// ErrInvalidInput is returned for caller-contract violations such
	// as malformed paths or out-of-order multipart part numbers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned for backend connectivity failures.
	// The core never retries; retry policy belongs to the backend
	// driver or the caller.
	ErrUnavailable = errors.New("backend unavailable")
)

// Error records a failed store operation together with the location it
// targeted. Backends wrap every translated failure in an *Error so both
// the taxonomy sentinel and the operation context survive propagation.
type Error struct {
	Op       string
	Location Path
	Err      error
}

func (e *Error) Error() string {
	if e.Location.IsRoot() {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Location.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// OpError wraps err in an *Error for the given operation and location.
// A nil err returns nil.
func OpError(op string, location Path, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Location: location, Err: err}
}

// OpErrorf wraps a formatted error in an *Error.
func OpErrorf(op string, location Path, format string, args ...any) error {
	return &Error{Op: op, Location: location, Err: fmt.Errorf(format, args...)}
}
