package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies one of the closed set of error categories that
// AuthService operations can return. Every error that crosses the service
// boundary carries exactly one kind; callers match on it exhaustively.
type ErrorKind int

const (
	// KindValidation covers malformed or semantically invalid caller input,
	// including business-rule violations such as a duplicate username or a
	// wrong password.
	KindValidation ErrorKind = iota
	// KindNotFound means a referenced user does not exist.
	KindNotFound
	// KindDatabase covers storage engine failures and anything not
	// otherwise classified.
	KindDatabase
)

// String returns the machine-readable code for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindDatabase:
		return "DATABASE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// StatusCode returns the HTTP status code associated with the kind.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error type returned by AuthService. Details carries
// structured context (e.g. the offending field) without leaking storage
// engine internals.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// NewValidationError builds a KindValidation error for a single field.
// Extra key/value pairs are folded into Details.
func NewValidationError(field, message string, kv ...string) *Error {
	details := map[string]string{"field": field}
	for i := 0; i+1 < len(kv); i += 2 {
		details[kv[i]] = kv[i+1]
	}
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// NewNotFoundError builds a KindNotFound error for a missing resource.
func NewNotFoundError(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]string{"resource": resource, "id": id},
	}
}

// NewDatabaseError wraps a storage failure. Only the failure message is
// carried forward, never driver-level state.
func NewDatabaseError(op string, cause error) *Error {
	return &Error{
		Kind:    KindDatabase,
		Message: fmt.Sprintf("%s failed: %v", op, cause),
		Details: map[string]string{"operation": op, "cause": cause.Error()},
	}
}

// Classify enforces the propagation policy: already-typed errors pass
// through unchanged, everything else becomes a database error for op.
func Classify(op string, err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewDatabaseError(op, err)
}

// AsError unwraps err into the tagged type, if it is one.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsKind reports whether err is a tagged error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsError(err)
	return ok && appErr.Kind == kind
}
