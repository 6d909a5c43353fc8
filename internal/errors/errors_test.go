package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", ErrUserAlreadyExists, http.StatusBadRequest, "USER_ALREADY_EXISTS"},
		{"unauthorized", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"forbidden", ErrNotOrganizer, http.StatusForbidden, "NOT_ORGANIZER"},
		{"not found", ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND"},
		{"validation", ErrInvalidRSVP, http.StatusBadRequest, "INVALID_RSVP"},
		{"wrapped", fmt.Errorf("delete event: %w", ErrNotOrganizer), http.StatusForbidden, "NOT_ORGANIZER"},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalMessage(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("dial tcp 10.0.0.3:3306: i/o timeout"))
	assert.Equal(t, "internal server error", httpErr.ToErrorResponse().Error)
}

func TestAppError_WithMessageKeepsIdentity(t *testing.T) {
	err := ErrUserNotFound.WithMessage("users not found: %s", "carol")

	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, errors.Is(err, ErrEventNotFound))
	assert.Equal(t, "users not found: carol", err.Error())
	assert.Equal(t, KindNotFound, err.Kind)
}
