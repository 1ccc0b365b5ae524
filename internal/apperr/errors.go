// Package apperr classifies the failures the client can surface to a user.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the class of a client-visible failure.
type Kind string

const (
	// KindUnreachable means no response was received (network, DNS, timeout).
	KindUnreachable Kind = "unreachable"
	// KindRejected means the server answered with a non-2xx status.
	KindRejected Kind = "rejected"
	// KindInvalidInput means client-side validation refused the action.
	KindInvalidInput Kind = "invalid_input"
)

// Error is a classified failure.
type Error struct {
	Kind   Kind
	Status int    // HTTP status for KindRejected
	Detail string // human-readable detail from the server or validator, may be empty
	Cause  error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Status != 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewUnreachableError wraps a transport failure where no response arrived.
func NewUnreachableError(cause error) *Error {
	return &Error{Kind: KindUnreachable, Cause: cause}
}

// NewRejectedError creates an error for a non-success HTTP status.
func NewRejectedError(status int, detail string) *Error {
	return &Error{Kind: KindRejected, Status: status, Detail: detail}
}

// NewInvalidInputError creates a client-side validation error.
func NewInvalidInputError(detail string) *Error {
	return &Error{Kind: KindInvalidInput, Detail: detail}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUnreachable returns true if err means the server could not be reached.
func IsUnreachable(err error) bool {
	return KindOf(err) == KindUnreachable
}

// IsRejected returns true if err carries a non-success server response.
func IsRejected(err error) bool {
	return KindOf(err) == KindRejected
}

// IsInvalidInput returns true if err is a client-side validation failure.
func IsInvalidInput(err error) bool {
	return KindOf(err) == KindInvalidInput
}

// Message picks the text shown to a user for err. Server or validator
// detail wins; otherwise fallback is used. Unreachable errors without
// detail read "Cannot connect to server".
func Message(err error, fallback string) string {
	var e *Error
	if !errors.As(err, &e) {
		if fallback != "" {
			return fallback
		}
		if err != nil {
			return err.Error()
		}
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Kind == KindUnreachable {
		return "Cannot connect to server"
	}
	return fallback
}
