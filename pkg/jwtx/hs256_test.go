package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newHS256(t *testing.T) *jwtx.HS256 {
	t.Helper()
	h, err := jwtx.NewHS256(testSecret, "shopauth")
	require.NoError(t, err)
	return h
}

func TestNewHS256_WeakKey(t *testing.T) {
	_, err := jwtx.NewHS256([]byte("too-short"), "shopauth")
	require.ErrorIs(t, err, jwtx.ErrWeakKey)

	_, err = jwtx.NewHS256(testSecret[:31], "shopauth")
	require.ErrorIs(t, err, jwtx.ErrWeakKey)
}

func TestHS256_SignVerify(t *testing.T) {
	h := newHS256(t)
	require.Equal(t, "HS256", h.Alg())

	now := time.Now().UTC()
	in := jwtx.NewClaims("bob@example.com", "p-9", "ADMIN", jwtx.KindRefresh, time.Hour, "", now)

	tok, err := h.Sign(in)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	out, err := h.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", out.Subject)
	require.Equal(t, "p-9", out.PrincipalID)
	require.Equal(t, "ADMIN", out.Role)
	require.Equal(t, jwtx.KindRefresh, out.TokenKind)
	require.Equal(t, "shopauth", out.Issuer, "issuer is filled in by the signer")
}

func TestHS256_VerifyIgnoresExpiry(t *testing.T) {
	h := newHS256(t)
	past := time.Now().Add(-2 * time.Hour)

	tok, err := h.Sign(jwtx.NewClaims("old@example.com", "p-1", "CUSTOMER", jwtx.KindAccess, time.Minute, "", past))
	require.NoError(t, err)

	c, err := h.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "old@example.com", c.Subject)
	require.ErrorIs(t, c.ValidateExpiryAt(time.Now()), jwtx.ErrExpired)
}

func TestHS256_Rejections(t *testing.T) {
	h := newHS256(t)
	tok, err := h.Sign(jwtx.NewClaims("a@example.com", "p-1", "CUSTOMER", jwtx.KindAccess, time.Hour, "", time.Now()))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "shopauth")
		require.NoError(t, err)
		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(tok, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "AA"
		_, err := h.Verify(strings.Join(parts, "."))
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := h.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("other algorithm", func(t *testing.T) {
		c := jwtx.NewClaims("a@example.com", "p-1", "CUSTOMER", jwtx.KindAccess, time.Hour, "shopauth", time.Now())
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(testSecret)
		require.NoError(t, err)
		_, err = h.Verify(s)
		require.Error(t, err)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		foreign, err := jwtx.NewHS256(testSecret, "someone-else")
		require.NoError(t, err)
		s, err := foreign.Sign(jwtx.NewClaims("a@example.com", "p-1", "CUSTOMER", jwtx.KindAccess, time.Hour, "", time.Now()))
		require.NoError(t, err)
		_, err = h.Verify(s)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}
