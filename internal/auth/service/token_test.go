package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	customer = domain.Principal{ID: "c1", Email: "ann@example.com", Role: domain.RoleCustomer}
	admin    = domain.Principal{ID: "a1", Email: "root@example.com", Role: domain.RoleAdmin}
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	token, exp, err := env.tokens.Issue(customer, domain.TokenAccess)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(jwtx.DefaultAccessTokenTTL), exp, 0)
	require.NotContains(t, token, ".", "the signed JWT must not be visible")

	c, err := env.tokens.ValidateAccess(token)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", c.Subject)
	require.Equal(t, "c1", c.PrincipalID)
	require.Equal(t, "CUSTOMER", c.Role)
	require.Equal(t, jwtx.KindAccess, c.TokenKind)
	require.Equal(t, testIssuer, c.Issuer)

	sub, err := env.tokens.Subject(token)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", sub)

	id, err := env.tokens.PrincipalID(token)
	require.NoError(t, err)
	require.Equal(t, "c1", id)

	role, err := env.tokens.Role(token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleCustomer, role)
}

func TestTokenService_DistinctJTI(t *testing.T) {
	env := newTestEnv(t)

	// Same principal, kind and instant.
	first, _, err := env.tokens.Issue(customer, domain.TokenRefresh)
	require.NoError(t, err)
	second, _, err := env.tokens.Issue(customer, domain.TokenRefresh)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	c1, err := env.tokens.ValidateRefresh(first)
	require.NoError(t, err)
	c2, err := env.tokens.ValidateRefresh(second)
	require.NoError(t, err)
	require.Len(t, c1.ID, 22)
	require.NotEqual(t, c1.ID, c2.ID)
}

func TestTokenService_TTLs(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	_, exp, err := env.tokens.Issue(admin, domain.TokenAccess)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(jwtx.DefaultAdminAccessTokenTTL), exp, 0)

	_, exp, err = env.tokens.Issue(customer, domain.TokenRefresh)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(jwtx.DefaultRefreshTokenTTL), exp, 0)

	env.tokens.AccessTTL = time.Minute
	_, exp, err = env.tokens.Issue(customer, domain.TokenAccess)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(time.Minute), exp, 0)
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	env := newTestEnv(t)

	a, _, err := env.tokens.Issue(customer, domain.TokenAccess)
	require.NoError(t, err)
	b, _, err := env.tokens.Issue(customer, domain.TokenAccess)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestTokenService_RejectsForgeries(t *testing.T) {
	env := newTestEnv(t)
	token, _, err := env.tokens.Issue(customer, domain.TokenAccess)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := env.tokens.Validate("not-a-token")
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := env.tokens.Validate("")
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		flipped := []byte(token)
		i := len(flipped) / 2
		if flipped[i] == 'A' {
			flipped[i] = 'B'
		} else {
			flipped[i] = 'A'
		}
		_, err := env.tokens.Validate(string(flipped))
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})

	t.Run("foreign keys", func(t *testing.T) {
		other := newTokenService(t, 2, env.clock)
		_, err := other.Validate(token)
		require.ErrorIs(t, err, autherr.ErrInvalidToken)
	})

	t.Run("refresh token as access", func(t *testing.T) {
		refresh, _, err := env.tokens.Issue(customer, domain.TokenRefresh)
		require.NoError(t, err)

		_, err = env.tokens.ValidateAccess(refresh)
		require.ErrorIs(t, err, autherr.ErrInvalidToken)

		_, err = env.tokens.ValidateRefresh(refresh)
		require.NoError(t, err)
	})
}

func TestTokenService_Expiry(t *testing.T) {
	env := newTestEnv(t)
	token, _, err := env.tokens.Issue(customer, domain.TokenAccess)
	require.NoError(t, err)

	expired, err := env.tokens.IsExpired(token)
	require.NoError(t, err)
	require.False(t, expired)

	in, err := env.tokens.ExpiresIn(token)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, in)

	// Expiry is inclusive of the exp instant.
	env.clock.Advance(jwtx.DefaultAccessTokenTTL)

	_, err = env.tokens.ValidateAccess(token)
	require.ErrorIs(t, err, autherr.ErrExpiredToken)

	var ae *autherr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "ann@example.com", ae.Subject)

	expired, err = env.tokens.IsExpired(token)
	require.NoError(t, err)
	require.True(t, expired)

	env.clock.Advance(time.Minute)
	in, err = env.tokens.ExpiresIn(token)
	require.NoError(t, err)
	require.Equal(t, -time.Minute, in)

	_, err = env.tokens.IsExpired(strings.ToUpper(token))
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestTokenService_IssuePairStoresFingerprint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.accounts.Register(ctx, domain.KindCustomer, RegisterRequest{
		Email: "ann@example.com", Name: "Ann", Password: "correct horse",
	})
	require.NoError(t, err)

	rec, err := env.store.RefreshTokens(domain.KindCustomer).GetRefreshTokenByHash(ctx, fingerprint(resp.RefreshToken))
	require.NoError(t, err)
	require.NotEqual(t, resp.RefreshToken, rec.TokenHash)
	require.True(t, rec.ExpiresAt.Equal(env.clock.Now().Add(jwtx.DefaultRefreshTokenTTL)))
}
