package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// expiryBuffer refreshes the access token this long before it expires.
	expiryBuffer = 30 * time.Second

	defaultAccessLifetime = 15 * time.Minute
)

// ErrAdminRequired is returned client-side for admin calls on a non-admin
// session when SDKClient.CheckRole is set.
var ErrAdminRequired = errors.New("authsdk: session is not an admin session")

// Session represents an authenticated session with automatic token refresh.
// All Session methods automatically handle token expiration and refresh when needed.
type Session struct {
	client *SDKClient
	kind   string
	role   string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// newSession creates a new authenticated session from a login response. Login
// does not report the access lifetime, so the session assumes the shortest
// default and learns the real one from the first refresh.
func newSession(client *SDKClient, kind string, auth *AuthResponse) *Session {
	return &Session{
		client:       client,
		kind:         kind,
		role:         auth.Role,
		accessToken:  auth.AccessToken,
		refreshToken: auth.RefreshToken,
		expiresAt:    sessionExpiry(int64(defaultAccessLifetime / time.Second)),
	}
}

func sessionExpiry(expiresIn int64) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - expiryBuffer)
}

// Role returns the role the session was issued for.
func (s *Session) Role() string { return s.role }

// Logout revokes the refresh token, ending this session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token to revoke")
	}

	return s.client.Logout(ctx, s.kind, refreshToken)
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	return s.refresh(ctx, "")
}

// refresh obtains a new access token. stale is the token the caller saw
// rejected; if another goroutine already replaced it, no request is made.
func (s *Session) refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stale != "" && s.accessToken != stale {
		return s.accessToken, nil
	}
	if stale == "" && time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	resp, err := s.client.Refresh(ctx, s.kind, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.expiresAt = sessionExpiry(resp.ExpiresIn)

	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) requireAdmin() error {
	if s.client.CheckRole && s.role != "ADMIN" {
		return ErrAdminRequired
	}
	return nil
}
