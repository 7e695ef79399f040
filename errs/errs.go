// Package errs holds the error taxonomy shared by the chat and game
// coordinators. Every error that reaches the transport boundary is either an
// *Error or gets classified as an operation failure.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failed command.
type Kind string

const (
	KindPermission Kind = "permission"
	KindJoin       Kind = "join"
	KindCreation   Kind = "creation"
	KindOperation  Kind = "operation"
	KindNotFound   Kind = "not_found"
	KindInvalid    Kind = "invalid"
)

// ErrNotFound is returned by directory lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Error is a classified, user-reportable failure.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Permission reports an actor or target lacking a role or status.
func Permission(format string, args ...any) *Error {
	return newf(KindPermission, format, args...)
}

// Join reports a failed join precondition.
func Join(format string, args ...any) *Error {
	return newf(KindJoin, format, args...)
}

// NotFound reports an absent room, user or game.
func NotFound(format string, args ...any) *Error {
	e := newf(KindNotFound, format, args...)
	e.Err = ErrNotFound
	return e
}

// Invalid reports a malformed command.
func Invalid(format string, args ...any) *Error {
	return newf(KindInvalid, format, args...)
}

// Creation wraps a downstream failure while creating a room or row.
func Creation(err error, format string, args ...any) *Error {
	e := newf(KindCreation, format, args...)
	e.Err = err
	return e
}

// Operation wraps a downstream failure during an otherwise valid transition.
func Operation(err error, format string, args ...any) *Error {
	e := newf(KindOperation, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of err. Unclassified errors are operation failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOperation
}

// Reason returns the user-facing message for err.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
