package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Unwrap(t *testing.T) {
	err := NotFound("order", "order-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Error(), "order-1")
}

func TestAppError_WrappedThroughFmt(t *testing.T) {
	inner := Conflict("checkout already in progress")
	err := fmt.Errorf("checkout: %w", inner)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Unprocessable("empty cart"), http.StatusUnprocessableEntity},
		{"sentinel not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel invalid input", fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestServiceUnavailable(t *testing.T) {
	err := ServiceUnavailable("catalog is unreachable")
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
	assert.ErrorIs(t, err, ErrServiceUnavail)
}
