// Package domainerrors defines the coded errors the service exposes to callers.
//
// Services return these (directly or wrapping a store error) so that transport
// layers can map failures to stable machine-readable codes without string
// inspection. For infrastructure facts (not found, conflict), stores return
// pkg/platform/sentinel errors and services translate them here.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is a stable machine-readable error code surfaced to API clients.
type Code string

const (
	// Credential failures (401-equivalent).
	CodeTokenMissing Code = "TOKEN_MISSING"
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Request validation failures (400-equivalent).
	CodeMissingParameters Code = "MISSING_PARAMETERS"
	CodeInvalidAction     Code = "INVALID_ACTION"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeBadRequest        Code = "BAD_REQUEST"

	// Authorization and registry failures.
	CodeAccessDenied Code = "ACCESS_DENIED"  // 403
	CodeDoorNotFound Code = "DOOR_NOT_FOUND" // 404
	CodeDoorOffline  Code = "DOOR_OFFLINE"   // 400: device unhealthy, command not applied
	CodeNotFound     Code = "NOT_FOUND"      // 404: generic

	// Server-side failures (500-equivalent).
	CodeUpdateFailed Code = "UPDATE_FAILED"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// DomainError carries a code and human-readable message, optionally wrapping a
// lower-level cause. The cause is for logs; only code and message reach clients.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with the
// given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, falling back to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from err.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its HTTP status equivalent.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeTokenMissing, CodeTokenInvalid, CodeTokenExpired, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeMissingParameters, CodeInvalidAction, CodeInvalidInput, CodeBadRequest, CodeDoorOffline:
		return http.StatusBadRequest
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeDoorNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeUpdateFailed, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
