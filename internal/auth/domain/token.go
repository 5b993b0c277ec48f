package domain

import (
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
)

// TokenKind distinguishes access from refresh tokens.
type TokenKind = jwtx.TokenKind

const (
	TokenAccess  = jwtx.KindAccess
	TokenRefresh = jwtx.KindRefresh
)

// RefreshToken models the stored refresh token record. There is at most one
// per principal; issuing a new one replaces it.
type RefreshToken struct {
	ID          string
	PrincipalID string
	TokenHash   string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the record's own expiry has passed at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// TokenPair is what login and registration hand back.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         Role   `json:"role"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Message      string `json:"message"`
}

// RefreshResponse is the body of a successful refresh. The refresh token is
// echoed unchanged.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds
}

// MeResponse describes the caller of an authenticated request.
type MeResponse struct {
	PrincipalID string `json:"principalId"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	ExpiresIn   int64  `json:"expiresIn"` // seconds
}
