package service

import (
	"errors"
	"fmt"
)

// Code classifies a service-level failure.
//
// Every error crossing the service boundary carries exactly one code, so
// adapters (HTTP today) can map outcomes to their own status vocabulary
// without string matching.
type Code int

const (
	// CodeUnknown is the zero value, never returned deliberately.
	CodeUnknown Code = iota

	// CodeUnauthenticated indicates missing or invalid credentials:
	// a bad login, an unknown or expired token.
	CodeUnauthenticated

	// CodeNotFound indicates the resource doesn't exist OR the requester
	// isn't allowed to know whether it exists. Access denial is
	// deliberately indistinguishable from absence.
	CodeNotFound

	// CodeAlreadyExists indicates a uniqueness conflict (duplicate email).
	CodeAlreadyExists

	// CodeValidation indicates a malformed or incomplete request.
	CodeValidation

	// CodeTransient indicates a backend failure that may clear on retry
	// (store unreachable, queue full).
	CodeTransient

	// CodePermanent indicates processing failed in a way retrying cannot
	// fix (non-image content in a thumbnail job).
	CodePermanent
)

// Error is the service-level error type.
type Error struct {
	// Code is the failure classification
	Code Code

	// Message is the client-facing description
	Message string

	// Err is the underlying cause, if any (not exposed to clients)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the service code from an error chain. Errors that never
// passed through the service layer report CodeUnknown.
func CodeOf(err error) Code {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return CodeUnknown
}

// Client-facing messages. The exact strings are part of the API surface.
const (
	msgUnauthorized    = "Unauthorized"
	msgNotFound        = "Not found"
	msgAlreadyExist    = "Already exist"
	msgMissingEmail    = "Missing email"
	msgMissingPassword = "Missing password"
	msgMissingName     = "Missing name"
	msgMissingType     = "Missing type"
	msgMissingData     = "Missing data"
	msgParentNotFound  = "Parent not found"
	msgParentNotFolder = "Parent is not a folder"
	msgFolderNoContent = "A folder doesn't have content"
	msgInvalidSize     = "Invalid size parameter"
)

// errUnauthenticated builds the uniform credential-failure error.
func errUnauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: msgUnauthorized}
}

// errNotFound builds the uniform absence/denial error.
func errNotFound() *Error {
	return &Error{Code: CodeNotFound, Message: msgNotFound}
}

// errValidation builds a request-validation error with a specific message.
func errValidation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// errTransient wraps a backend failure.
func errTransient(cause error) *Error {
	return &Error{Code: CodeTransient, Message: "Service temporarily unavailable", Err: cause}
}
