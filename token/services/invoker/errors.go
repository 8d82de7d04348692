/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failure of an invocation
type Kind int

const (
	Unknown Kind = iota
	// IdentityNotFound means the caller identity is not enrolled in the organization wallet
	IdentityNotFound
	// PreconditionFailed means the ledger state read before the write rejected the operation
	PreconditionFailed
	// InvalidOperation means the function name or its arguments are not acceptable
	InvalidOperation
	// LedgerFailure means the ledger client failed: connection, endorsement, commit or timeout
	LedgerFailure
)

var kindNames = map[Kind]string{
	Unknown:            "Unknown",
	IdentityNotFound:   "IdentityNotFound",
	PreconditionFailed: "PreconditionFailed",
	InvalidOperation:   "InvalidOperation",
	LedgerFailure:      "LedgerFailure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the error returned by every invocation
type Error struct {
	Kind     Kind
	Function string
	Message  string
	cause    error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Cause() error {
	return e.cause
}

// Retryable is true for infrastructure failures only, business rejections never succeed on retry
func (e *Error) Retryable() bool {
	return e.Kind == LedgerFailure
}

func newError(kind Kind, function string, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Function: function,
		Message:  fmt.Sprintf(format, args...),
		cause:    cause,
	}
}

func preconditionFailed(function string, format string, args ...interface{}) *Error {
	return newError(PreconditionFailed, function, nil, format, args...)
}

func ledgerFailure(function string, cause error, format string, args ...interface{}) *Error {
	return newError(LedgerFailure, function, cause, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, Unknown if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsRetryable reports whether err carries a retryable *Error
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
