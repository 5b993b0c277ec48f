// Package autherr is the closed set of failures the security core reports at
// its boundary, and their HTTP rendering.
package autherr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind is one of the four failure kinds.
type Kind int

const (
	KindInvalidToken Kind = iota + 1
	KindExpiredToken
	KindTokenNotFound
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalidToken:
		return "invalid_token"
	case KindExpiredToken:
		return "expired_token"
	case KindTokenNotFound:
		return "token_not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Status is the HTTP status the kind maps to.
func (k Kind) Status() int {
	if k == KindRateLimited {
		return http.StatusTooManyRequests
	}
	return http.StatusUnauthorized
}

// Message is the client-facing text for the kind. InvalidToken is deliberately
// generic; ExpiredToken tells the client to use its refresh token.
func (k Kind) Message() string {
	switch k {
	case KindExpiredToken:
		return "Token has expired, please refresh"
	case KindTokenNotFound:
		return "Refresh token not found or revoked"
	case KindRateLimited:
		return "Rate limit exceeded"
	default:
		return "Invalid token"
	}
}

// Error is a failure of one Kind. Subject is set on ExpiredToken for logging
// only. RetryAfter is set on RateLimited.
type Error struct {
	Kind       Kind
	Subject    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrExpiredToken)
// works regardless of subject or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidToken  = &Error{Kind: KindInvalidToken}
	ErrExpiredToken  = &Error{Kind: KindExpiredToken}
	ErrTokenNotFound = &Error{Kind: KindTokenNotFound}
	ErrRateLimited   = &Error{Kind: KindRateLimited}
)

// InvalidToken wraps cause as an InvalidToken failure.
func InvalidToken(cause error) *Error {
	return &Error{Kind: KindInvalidToken, Err: cause}
}

// ExpiredToken reports an expired token issued to subject.
func ExpiredToken(subject string) *Error {
	return &Error{Kind: KindExpiredToken, Subject: subject}
}

// TokenNotFound reports a refresh token that is absent from the store.
func TokenNotFound() *Error {
	return &Error{Kind: KindTokenNotFound}
}

// RateLimited reports a rejected request that may retry after d.
func RateLimited(d time.Duration) *Error {
	return &Error{Kind: KindRateLimited, RetryAfter: d}
}

// KindOf extracts the failure kind. Anything that is not an *Error maps to
// InvalidToken so unknown failures at the auth boundary stay fail-closed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalidToken
}

// Body is the JSON shape of a core failure response. The trailing fields
// are only set on RateLimited.
type Body struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`

	Status     int    `json:"status,omitempty"`
	RetryAfter int64  `json:"retryAfter,omitempty"`
	Path       string `json:"path,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// retryAfterSeconds rounds up so a client never retries early.
func (e *Error) retryAfterSeconds() int64 {
	return max(int64((e.RetryAfter+time.Second-1)/time.Second), 1)
}

// NewBody builds the response body for err. Callers may enrich it before
// handing it to WriteBody.
func NewBody(err error) Body {
	kind := KindOf(err)
	status := kind.Status()
	b := Body{
		Error:   http.StatusText(status),
		Code:    kind.String(),
		Message: kind.Message(),
	}

	var e *Error
	if kind == KindRateLimited && errors.As(err, &e) {
		b.Status = status
		b.RetryAfter = e.retryAfterSeconds()
	}
	return b
}

// Write renders err with the kind's status. Internal causes are never
// written.
func Write(w http.ResponseWriter, err error) {
	WriteBody(w, err, NewBody(err))
}

// WriteBody writes body with the status and headers of err's kind.
func WriteBody(w http.ResponseWriter, err error, body Body) {
	kind := KindOf(err)
	status := kind.Status()

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	switch kind {
	case KindRateLimited:
		var e *Error
		if errors.As(err, &e) {
			w.Header().Set("Retry-After", strconv.FormatInt(e.retryAfterSeconds(), 10))
		}
	default:
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error=%q`, kind.String()))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
