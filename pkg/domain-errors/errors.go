// Package domainerrors carries coded errors across module boundaries so the
// transport layer can map them to status codes without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeBadRequest          Code = "bad_request"
	CodeInvalidInput        Code = "invalid_input"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeUnauthorized        Code = "unauthorized"
	CodeForbidden           Code = "forbidden"
	CodeInvariantViolation  Code = "invariant_violation"
	CodeEvidenceUnavailable Code = "evidence_unavailable"
	CodePersistFailed       Code = "persist_failed"
	CodeInternal            Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to API callers;
// the wrapped cause is not.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost coded error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in err carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Retryable reports whether the caller may retry the whole operation.
// Evidence reads and score persistence are cheap and idempotent to repeat.
func Retryable(err error) bool {
	de, ok := As(err)
	if !ok {
		return false
	}
	switch de.Code {
	case CodeEvidenceUnavailable, CodePersistFailed:
		return true
	default:
		return false
	}
}
