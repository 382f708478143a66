// Package domainerrors defines the error taxonomy shared by every layer of
// the gateway. Errors carry a stable machine-readable code so transports and
// result aggregators can classify failures without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	// CodeValidation marks malformed or incomplete Intent/Offer input.
	// Validation failures are reported immediately and never retried.
	CodeValidation Code = "validation_error"

	// CodeSignature marks a failed signature verification. Non-fatal:
	// callers may proceed with the unverified payload but must record it.
	CodeSignature Code = "signature_error"

	// CodeMalformedInput marks input that could not even be parsed.
	CodeMalformedInput Code = "malformed_input"

	// CodeKeyUnavailable marks a missing private key for a signing identity.
	CodeKeyUnavailable Code = "key_unavailable"

	// CodeTimeout marks a per-peer deadline expiry.
	CodeTimeout Code = "timeout"

	// CodeGlobalTimeout marks expiry of the whole-solicitation deadline.
	CodeGlobalTimeout Code = "global_timeout"

	// CodeCommunication marks a transport-level failure talking to a peer.
	CodeCommunication Code = "communication_error"

	// CodeAgentException marks an unexpected failure inside a peer task.
	CodeAgentException Code = "agent_exception"

	// CodeUnderwriting marks a failure inside the pricing pipeline.
	CodeUnderwriting Code = "underwriting_error"

	// CodeParse marks a peer reply that could not be interpreted as an offer.
	CodeParse Code = "parse_error"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeBadRequest   Code = "bad_request"
	CodeInternal     Code = "internal_error"
)

// Error is a code-tagged error value.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New builds an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a convenience alias for HasCode, matching call sites that read
// naturally as a predicate.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
