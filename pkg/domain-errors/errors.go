// Package derrors provides code-carrying domain errors. Services return these
// so transports can map failures to responses without string matching, and so
// callers receive the failure kind plus the offending values.
//
// The codes follow the failure taxonomy of the registry: precondition
// violations (wrong caller or holder), state violations (wrong lifecycle
// phase), value violations (bad magnitudes), and resource exhaustion. Every
// failure is detected before any state mutation, so an error implies the
// ledger is unchanged.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodePrecondition marks wrong-caller failures: not the holder, trading
	// with yourself, a caller that may not trigger the operation.
	CodePrecondition Code = "precondition_violation"

	// CodeState marks wrong-lifecycle failures: bidding on an ended auction,
	// finalizing twice, buying an unlisted asset, fulfilling a consumed
	// request.
	CodeState Code = "state_violation"

	// CodeValue marks bad-magnitude failures: zero prices, low bids,
	// insufficient payments, non-positive durations.
	CodeValue Code = "value_violation"

	// CodeExhausted marks resource exhaustion, e.g. the mint supply cap.
	CodeExhausted Code = "resource_exhausted"

	// CodeNotFound marks lookups of entities that were never created.
	CodeNotFound Code = "not_found"

	// CodeInvalidInput marks malformed external input rejected at a trust
	// boundary before it reaches domain logic.
	CodeInvalidInput Code = "invalid_input"

	// CodeUnauthorized marks missing or invalid caller credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeInternal marks infrastructure faults that are not the caller's doing.
	CodeInternal Code = "internal"
)

// Error is a domain error with a classification code and a human-readable
// reason suitable for rendering to callers.
type Error struct {
	Code   Code
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and reason.
func New(code Code, reason string) error {
	return &Error{Code: code, Reason: reason}
}

// Newf creates a domain error with a formatted reason. Use it to carry the
// offending values alongside the failure kind.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and reason to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, reason string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Reason: reason, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the classification code from err, or CodeInternal when err
// is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf extracts the human-readable reason from err, falling back to
// err.Error() for non-domain errors.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return err.Error()
}
