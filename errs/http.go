package errs

import (
	"fmt"
	"net/http"
)

// NewMissingParameterError reports an absent path parameter or header (400).
func NewMissingParameterError(name string) *HTTPError {
	return newHTTPError(http.StatusBadRequest, "MISSING_PARAMETER", fmt.Sprintf("Missing required parameter: %s", name))
}

// NewInvalidBodyError reports a missing or malformed request body (400).
func NewInvalidBodyError(message string) *HTTPError {
	return newHTTPError(http.StatusBadRequest, "INVALID_BODY", message)
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, "", message)
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, "", message)
}

// NewStoreError reports a failed DynamoDB call (500). The store message is
// passed through, as the handlers always have.
func NewStoreError(err error) *HTTPError {
	return newHTTPError(http.StatusInternalServerError, "STORE_ERROR", err.Error()).WithCause(err)
}

// NewInternalServerError reports anything unexpected (500).
func NewInternalServerError(err error) *HTTPError {
	msg := http.StatusText(http.StatusInternalServerError)
	if err != nil {
		msg = fmt.Sprintf("Unexpected error: %v", err)
	}
	return newHTTPError(http.StatusInternalServerError, "", msg).WithCause(err)
}

// NewInvalidParameterError reports a parameter that is present but unusable (400).
func NewInvalidParameterError(name, reason string) *HTTPError {
	return newHTTPError(http.StatusBadRequest, "INVALID_PARAMETER", fmt.Sprintf("Invalid parameter %s: %s", name, reason))
}
