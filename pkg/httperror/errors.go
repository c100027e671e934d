// Package httperror defines the closed set of typed errors shared by the
// identifier mapper and the request dispatcher.
//
// These are client-facing errors: each carries the HTTP status code the
// dispatcher writes when the error reaches the dispatch boundary. Anything
// else surfacing there is an untyped failure and becomes a 500.
//
// Usage Pattern:
//
//	result, err := mapper.MapURLToFilePath(id, accept)
//	if err != nil {
//	    return err // the dispatcher translates typed errors to responses
//	}
package httperror

import (
	"errors"
	"net/http"
)

// Error is a typed HTTP error carrying a status code and a human-readable
// message. The message is written verbatim as the response body, so it must
// never contain internal detail a client should not see.
type Error struct {
	// StatusCode is the HTTP status the dispatcher responds with
	StatusCode int

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewBadRequest creates a 400 error for malformed or disallowed client input.
func NewBadRequest(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message}
}

// NewNotFound creates a 404 error for identifiers outside the configured
// namespace or resources that do not exist.
func NewNotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Message: message}
}

// As unwraps err to a typed *Error if one is anywhere in its chain.
//
// The dispatcher uses this to pattern-match handler failures: typed errors
// keep their status code, everything else is treated as an unknown failure.
func As(err error) (*Error, bool) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// StatusCodeOf returns the status code a failure translates to: the typed
// code if err is an *Error, 500 otherwise.
func StatusCodeOf(err error) int {
	if httpErr, ok := As(err); ok {
		return httpErr.StatusCode
	}
	return http.StatusInternalServerError
}
