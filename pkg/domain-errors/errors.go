// Package domainerrors provides coded errors for the loan origination domain.
//
// Services construct these at the point where a business rule fails; the HTTP
// layer translates codes into status responses. Infrastructure facts (row
// missing, CAS lost) are expressed as sentinel errors in pkg/platform/sentinel
// and wrapped into coded errors at the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport translation and assertions.
type Code string

const (
	// CodeInvalidInput marks a business-rule precondition failure. Syntactic
	// validation happens at intake; anything that still reaches a service or
	// the risk calculator malformed fails loudly with this code.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks a lookup for a record that does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a persistence conflict: a compare-and-set transition
	// lost the race, or a unique constraint was violated.
	CodeConflict Code = "conflict"

	// CodeTransitionRejected marks an illegal lifecycle transition: the
	// source status or the actor role is not in the allowed set.
	CodeTransitionRejected Code = "transition_rejected"

	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks an authenticated actor acting outside its role.
	CodeForbidden Code = "forbidden"

	// CodeInternal marks an unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// DomainError carries a code alongside a human-readable message.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Newf creates a DomainError with a formatted message.
func Newf(code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Wrapf attaches a code and a formatted message to an underlying error.
func Wrapf(err error, code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost DomainError in the chain, or
// CodeInternal when the error is not a DomainError.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
