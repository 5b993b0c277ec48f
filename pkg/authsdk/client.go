package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// Principal kinds as they appear in the /api/auth/{kind}/... paths.
const (
	KindUser  = "user"
	KindAdmin = "admin"
)

// SDKClient is a client for the shopauth service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckRole makes a Session refuse admin-only calls client-side when it
	// was not issued for an admin. Set to false in tests to exercise the
	// server-side role check.
	// Default: true
	CheckRole bool
}

// NewSDKClient creates a new auth service client with role checking enabled.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		CheckRole: true,
	}
}

// NewSessionFromTokens creates an authenticated session from existing tokens,
// e.g. ones persisted by a previous run. expiresIn is the access token's
// remaining lifetime in seconds.
func (c *SDKClient) NewSessionFromTokens(kind, role, accessToken, refreshToken string, expiresIn int64) *Session {
	return &Session{
		client:       c,
		kind:         kind,
		role:         role,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    sessionExpiry(expiresIn),
	}
}
