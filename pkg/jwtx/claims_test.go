package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewClaims("ann@example.com", "p-1", "CUSTOMER", jwtx.KindAccess, 15*time.Minute, "shopauth", now)

	require.Equal(t, "ann@example.com", c.Subject)
	require.Equal(t, "p-1", c.PrincipalID)
	require.Equal(t, "CUSTOMER", c.Role)
	require.Equal(t, jwtx.KindAccess, c.TokenKind)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(15*time.Minute), c.ExpiresAt.Time)
	require.Empty(t, c.ID)
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "shopauth",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("shopauth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("storefront"), jwtx.ErrIssuer)
	})
}

func TestValidateKind(t *testing.T) {
	t.Run("refresh presented as access", func(t *testing.T) {
		c := &jwtx.Claims{TokenKind: jwtx.KindRefresh}
		require.ErrorIs(t, c.ValidateKind(jwtx.KindAccess), jwtx.ErrKindMismatch)
	})

	t.Run("missing kind defaults to access", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.NoError(t, c.ValidateKind(jwtx.KindAccess))
		require.ErrorIs(t, c.ValidateKind(jwtx.KindRefresh), jwtx.ErrKindMismatch)
	})
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Minute)),
			},
		}
		require.NoError(t, claims.ValidateExpiryAt(now))
		require.Greater(t, claims.ExpiresIn(now), time.Duration(0))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiryAt(now), jwtx.ErrExpired)
		require.Less(t, claims.ExpiresIn(now), time.Duration(0))
	})

	t.Run("expiry instant is exclusive", func(t *testing.T) {
		exp := now.Truncate(time.Second)
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiryAt(exp), jwtx.ErrExpired)
	})

	t.Run("no exp", func(t *testing.T) {
		claims := &jwtx.Claims{}
		require.ErrorIs(t, claims.ValidateExpiryAt(now), jwtx.ErrInvalidClaim)
	})
}
