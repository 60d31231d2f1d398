package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("bad %s", "input"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("save: %w", FieldValidation("icon", "too big")), http.StatusBadRequest},
		{"auth", ErrAuthenticationFailed, http.StatusUnauthorized},
		{"permission", fmt.Errorf("delete: %w", ErrPermissionDenied), http.StatusForbidden},
		{"not found", NotFound("category", 4), http.StatusNotFound},
		{"invalid credentials", InvalidCredentials("Invalid token."), http.StatusUnauthorized},
		{"throttled", ErrRateLimited, http.StatusTooManyRequests},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "qty must be an integer", Validation("qty must be an integer").Error())
	assert.Equal(t, "icon: too big", FieldValidation("icon", "too big").Error())
	assert.Equal(t, "category 4: not found", NotFound("category", 4).Error())
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
		field  string
	}{
		{"validation", FieldValidation("qty", "A valid non-negative integer is required."), http.StatusBadRequest, "A valid non-negative integer is required.", "qty"},
		{"credentials", InvalidCredentials("Invalid token."), http.StatusUnauthorized, "Invalid token.", ""},
		{"permission", ErrPermissionDenied, http.StatusForbidden, ErrPermissionDenied.Error(), ""},
		{"throttled", ErrRateLimited, http.StatusTooManyRequests, ErrRateLimited.Error(), ""},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, http.StatusText(tt.status), resp.Error)
			assert.Equal(t, tt.detail, resp.Detail)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}
