package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	// Token pipeline failures
	ErrorCodeInvalidToken  = "invalid_token"
	ErrorCodeExpiredToken  = "expired_token"
	ErrorCodeTokenNotFound = "token_not_found"
	ErrorCodeRateLimited   = "rate_limited"

	// Request-level failures
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountExists      = "account_exists"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is returned for every non-2xx response from the service.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Code is the machine-readable failure (see the ErrorCode constants)
	Code string

	// Message is a human-readable description
	Message string

	// RetryAfter is how long to wait before retrying a 429, zero otherwise
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsExpiredToken reports whether err is an expired access or refresh token.
func IsExpiredToken(err error) bool {
	return hasCode(err, ErrorCodeExpiredToken)
}

// IsRateLimited reports whether err is a 429 from either limiter.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. Returns nil
// for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			apiErr.Message = errResp.Message
		}
		switch {
		case errResp.Code != "":
			apiErr.Code = errResp.Code
		case resp.StatusCode == http.StatusTooManyRequests:
			// A proxy in front of the service may answer 429 without a code.
			apiErr.Code = ErrorCodeRateLimited
		}
		if errResp.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(errResp.RetryAfter) * time.Second
		}
	}

	if apiErr.RetryAfter == 0 {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	return apiErr
}
