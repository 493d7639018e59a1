package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an expected auth failure for the boundary layer.
type Code string

const (
	CodeInvalidRequest Code = "invalid_request"
	CodeUnauthorized   Code = "unauthorized"
	CodeConflict       Code = "conflict"
	CodeNotFound       Code = "not_found"
	CodeInternal       Code = "internal"
)

// Error is the typed error returned by the Service for expected failure
// modes. Message is safe to relay to callers; the cause is not.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the code to an HTTP status for the boundary layer.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AsError extracts a typed *Error; unexpected errors map to CodeInternal.
func AsError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: CodeInternal, Message: "internal error", cause: err}
}

func invalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}

// unauthorized deliberately carries one fixed message for every credential
// failure so callers cannot distinguish "no such user" from "wrong password"
// or a reused refresh token.
func unauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Message: "invalid credentials"}
}

func conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", cause: err}
}
