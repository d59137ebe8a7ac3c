package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a comparison job could not run.
type ErrorKind string

const (
	ErrorNone           ErrorKind = ""
	ErrorMissingInput   ErrorKind = "missing_input"
	ErrorMalformedInput ErrorKind = "malformed_input"
	ErrorPartialInput   ErrorKind = "partial_input"
)

// ErrSnapshotNotFound is returned by snapshot readers when the object does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// InputError reports a problem with one or both snapshots of a drawing pair.
// Side is "a", "b" or "" when the problem concerns the pair as a whole.
type InputError struct {
	Kind ErrorKind
	Side string
	Err  error
}

func (e *InputError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (version %s): %v", e.Kind, e.Side, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err with an input error kind.
func NewInputError(kind ErrorKind, side string, err error) *InputError {
	return &InputError{Kind: kind, Side: side, Err: err}
}

// KindOf extracts the ErrorKind carried by err, or ErrorNone.
func KindOf(err error) ErrorKind {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ErrorNone
}
