// Package sdkerrors defines the error taxonomy shared by every package in
// this module. Components never return bare errors for conditions a caller
// needs to branch on; they return or wrap an *Error with one of the Kinds
// below so callers can use errors.As/errors.Is regardless of which package
// raised the failure.
package sdkerrors

import (
	"errors"
	"fmt"
)

// Kind distinguishes the broad category of an error without leaking any
// internal error code.
type Kind string

const (
	// NotFound: CLI binary, project directory, or session file missing.
	NotFound Kind = "not_found"
	// Parse: malformed JSON, inconsistent session id, unknown required field.
	Parse Kind = "parse"
	// Invocation: CLI exited non-zero or timed out.
	Invocation Kind = "invocation"
	// IO: filesystem read/write failure.
	IO Kind = "io"
	// State: invalid use of the API (overlapping sends, resuming empty history).
	State Kind = "state"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Cause   error
	Kind    Kind
	Message string
	Path    string
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Message, e.Path, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Path)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind and Message, so that
// errors.Is(err, sdkerrors.NotFound) style checks are not possible directly
// (Kind is not an error) but errors.As plus a Kind comparison is the
// intended caller pattern:
//
//	var sdkErr *sdkerrors.Error
//	if errors.As(err, &sdkErr) && sdkErr.Kind == sdkerrors.NotFound { ... }
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that wraps cause, preserving it for errors.Unwrap.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithPath attaches the offending path to an *Error and returns it.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
