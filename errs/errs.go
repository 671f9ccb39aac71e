// Package errs defines the error shape every handler returns to its caller.
//
// Each handler converts whatever went wrong into an *HTTPError before it
// leaves the handler boundary; the error is then serialized as
// {"message": ..., "code": ...} with the matching status code.
package errs

import (
	"errors"
	"net/http"
	"strings"
)

// HTTPError is an error with a status code and a machine-friendly code.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`

	// cause is logged but never sent to clients.
	cause error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of e that wraps err.
func (e *HTTPError) WithCause(err error) *HTTPError {
	return &HTTPError{Code: e.Code, Message: e.Message, Status: e.Status, cause: err}
}

// As extracts an *HTTPError from err.
func As(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

func newHTTPError(status int, code, message string) *HTTPError {
	if code == "" {
		code = MakeUpperCaseWithUnderscores(http.StatusText(status))
	}
	return &HTTPError{Code: code, Message: message, Status: status}
}
