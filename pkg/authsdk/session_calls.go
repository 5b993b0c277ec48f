package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Me describes the session's principal.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := s.call(ctx, http.MethodGet, "/api/v1/me", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RateLimitStats returns the global limiter's cache statistics. Admin only.
func (s *Session) RateLimitStats(ctx context.Context) (*RateLimitStats, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	var out RateLimitStats
	if err := s.call(ctx, http.MethodGet, "/api/v1/admin/ratelimit/stats", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveRateLimitKey drops one identifier's bucket. Admin only.
func (s *Session) RemoveRateLimitKey(ctx context.Context, key string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.call(ctx, http.MethodDelete, "/api/v1/admin/ratelimit/keys/"+url.PathEscape(key), nil, http.StatusNoContent)
}

// ClearRateLimits drops every bucket. Admin only.
func (s *Session) ClearRateLimits(ctx context.Context) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.call(ctx, http.MethodDelete, "/api/v1/admin/ratelimit", nil, http.StatusNoContent)
}

// call performs an authenticated request. An expired_token 401 triggers one
// refresh and one retry.
func (s *Session) call(ctx context.Context, method, path string, target any, expectedStatus int) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	err = s.do(ctx, method, path, token, target, expectedStatus)
	if !IsExpiredToken(err) {
		return err
	}

	token, err = s.refresh(ctx, token)
	if err != nil {
		return err
	}
	return s.do(ctx, method, path, token, target, expectedStatus)
}

func (s *Session) do(ctx context.Context, method, path, token string, target any, expectedStatus int) error {
	resp, err := s.client.doJSON(ctx, method, path, nil, token)
	if err != nil {
		return err
	}
	if expectedStatus == http.StatusNoContent {
		return checkStatusNoContent(resp)
	}
	return decodeJSON(resp, target, expectedStatus)
}
