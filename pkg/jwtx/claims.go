package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. These can be overridden through configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for customer access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultAdminAccessTokenTTL is the lifetime for access tokens minted for
	// the admin role.
	DefaultAdminAccessTokenTTL = time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenKind separates access tokens from refresh tokens so one can never be
// presented in place of the other.
type TokenKind string

const (
	KindAccess  TokenKind = "ACCESS"
	KindRefresh TokenKind = "REFRESH"
)

// Claims is the signed claim-set carried inside every token. The subject is
// the principal's email.
type Claims struct {
	jwt.RegisteredClaims

	PrincipalID string    `json:"principalId"`
	Role        string    `json:"role"`
	TokenKind   TokenKind `json:"tokenKind,omitempty"`
}

// NewClaims builds claims issued at now and expiring after ttl. The caller
// assigns the jti.
func NewClaims(
	subject, principalID, role string,
	kind TokenKind,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		PrincipalID: principalID,
		Role:        role,
		TokenKind:   kind,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateKind rejects a token minted for a different purpose. Tokens without
// a kind are treated as access tokens.
func (c *Claims) ValidateKind(expected TokenKind) error {
	kind := c.TokenKind
	if kind == "" {
		kind = KindAccess
	}
	if kind != expected {
		return ErrKindMismatch
	}
	return nil
}

// ValidateExpiryAt reports ErrExpired once now has reached exp. A token
// without exp is never accepted.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}

// ExpiresIn returns the remaining lifetime at now, negative once expired.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
