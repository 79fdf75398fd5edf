package audit

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a required identifier or snapshot field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the referenced log entry or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedAction indicates the action cannot be rolled back.
	ErrUnsupportedAction = errors.New("action cannot be rolled back")
	// ErrAmbiguousState indicates the record identifier cannot be derived from stored snapshots.
	ErrAmbiguousState = errors.New("ambiguous record state")
	// ErrStorageUnavailable indicates a transient failure of the underlying store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error wraps one of the sentinel classes with the failing operation and cause.
type Error struct {
	Class error
	Op    string
	Err   error
}

// NewError builds a classified error. class must be one of the package sentinels.
func NewError(class error, op string, err error) *Error {
	return &Error{Class: class, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Op == "":
		return e.Class.Error()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Class)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Class, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Class, e.Err)
	}
}

// Is matches the sentinel class so callers can use errors.Is(err, audit.ErrNotFound).
func (e *Error) Is(target error) bool {
	return e.Class == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify returns the sentinel class carried by err, or nil when err is unclassified.
func Classify(err error) error {
	for _, class := range []error{ErrValidation, ErrNotFound, ErrUnsupportedAction, ErrAmbiguousState, ErrStorageUnavailable} {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}
