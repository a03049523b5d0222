// Package domainerrors carries a stable failure code alongside an error so the
// HTTP layer can map it once. Ledger workflow failures have their own codes
// because callers need to know which transaction went wrong.
package domainerrors

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"

	CodeChainSubmission Code = "chain_submission_failed" // build, sign, transport or effects failure
	CodeSchemaCreation  Code = "schema_creation_failed"  // schema transaction created no SchemaObject
	CodeDIDCreation     Code = "did_creation_failed"     // DID transaction created no DIDObject
	CodeVCIssuance      Code = "vc_issuance_failed"      // issuance transaction created no VCObject
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// Trace joins this message with every wrapped cause, outermost first, e.g.
// "issue credential: submit transaction: dial tcp: connection refused".
func (e *Error) Trace() string {
	parts := []string{e.Error()}
	for cause := e.Err; cause != nil; {
		inner, ok := cause.(*Error)
		if !ok {
			parts = append(parts, cause.Error())
			break
		}
		if inner.Message != "" {
			parts = append(parts, inner.Message)
		}
		cause = inner.Err
	}
	return strings.Join(parts, ": ")
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches msg to err. A domain code already on err wins over code, so
// a submission failure inside an issuance still reports the submission.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		code = existing.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal
// for errors that carry none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
