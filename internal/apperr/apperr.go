// Package apperr defines the error kinds surfaced to API clients and their
// HTTP status mapping.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

var (
	ErrAuthenticationFailed = errors.New("authentication credentials were not provided")
	ErrPermissionDenied     = errors.New("you do not have permission to perform this action")
	ErrNotFound             = errors.New("not found")
	ErrRateLimited          = errors.New("request was throttled")
)

// ValidationError reports malformed or policy-violating input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validation builds a ValidationError without a field.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// FieldValidation builds a ValidationError attached to a field.
func FieldValidation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the missing resource.
func NotFound(resource string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", resource, id, ErrNotFound)
}

// kindError carries a client-facing message for one of the sentinel kinds.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// InvalidCredentials reports credentials that were supplied but rejected.
func InvalidCredentials(format string, args ...interface{}) error {
	return &kindError{msg: fmt.Sprintf(format, args...), kind: ErrAuthenticationFailed}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Status maps err to the HTTP status code returned to the client.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON envelope every API error is written as.
type Response struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// Write maps err onto the error envelope. Internal errors are logged and
// their detail is masked.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	resp := Response{Status: status, Error: http.StatusText(status), Detail: err.Error()}

	var ve *ValidationError
	if errors.As(err, &ve) {
		resp.Detail = ve.Message
		resp.Field = ve.Field
	}
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		resp.Detail = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}
