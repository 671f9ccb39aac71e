package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *HTTPError
		status int
		code   string
	}{
		{"missing parameter", NewMissingParameterError("userId"), http.StatusBadRequest, "MISSING_PARAMETER"},
		{"invalid parameter", NewInvalidParameterError("startDate", "not a date"), http.StatusBadRequest, "INVALID_PARAMETER"},
		{"invalid body", NewInvalidBodyError("Invalid JSON in request body"), http.StatusBadRequest, "INVALID_BODY"},
		{"unauthorized", NewUnauthorizedError("nope"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not found", NewNotFoundError("User not found"), http.StatusNotFound, "NOT_FOUND"},
		{"store", NewStoreError(errors.New("throttled")), http.StatusInternalServerError, "STORE_ERROR"},
		{"unexpected", NewInternalServerError(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}

	assert.Equal(t, "Missing required parameter: userId", NewMissingParameterError("userId").Message)
	assert.Equal(t, "Unexpected error: boom", NewInternalServerError(errors.New("boom")).Message)
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	cause := errors.New("throttled")
	wrapped := fmt.Errorf("update profile: %w", NewStoreError(cause))

	httpErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.ErrorIs(t, httpErr, cause)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
