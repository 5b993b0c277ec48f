package autherr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes for request-level failures outside the token pipeline.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountExists      = "account_exists"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeServerError        = "server_error"
)

// APIError is a handler-level failure with its own status and code.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes the error as {error, code, message}.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(Body{
		Error:   http.StatusText(e.StatusCode),
		Code:    e.Code,
		Message: e.Message,
	})
}

// NewAPIError creates an APIError with a custom message.
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, Code: code, Message: message}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidRequest,
		Message:    "the request is malformed or missing required fields",
	}

	// ErrInvalidCredentials does not say whether the email or the password
	// was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidCredentials,
		Message:    "invalid email or password",
	}

	ErrAccountExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       CodeAccountExists,
		Message:    "an account with this email already exists",
	}

	ErrUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthorized,
		Message:    "authentication is required",
	}

	ErrForbidden = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       CodeForbidden,
		Message:    "access denied",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    "not found",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeServerError,
		Message:    "internal server error",
	}
)
