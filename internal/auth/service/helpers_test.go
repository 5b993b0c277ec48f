package service

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "shopauth-test"

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	store    *sqlite.Store
	clock    *testClock
	tokens   *TokenService
	refresh  *RefreshService
	accounts *AccountService
}

func newTokenService(t *testing.T, keyByte byte, clock *testClock) *TokenService {
	t.Helper()

	codec, err := cryptox.NewTokenCodecFromBytes(bytes.Repeat([]byte{keyByte}, cryptox.TokenKeySize))
	require.NoError(t, err)
	signer, err := jwtx.NewHS256([]byte(strings.Repeat(string(rune('a'+keyByte)), 32)), testIssuer)
	require.NoError(t, err)

	return &TokenService{
		Codec:    codec,
		Signer:   signer,
		Verifier: signer,
		Issuer:   testIssuer,
		Now:      clock.Now,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	clock := &testClock{t: time.Unix(1_700_000_000, 0).UTC()}
	tokens := newTokenService(t, 1, clock)
	tokens.Store = s

	return &testEnv{
		store:   s,
		clock:   clock,
		tokens:  tokens,
		refresh: &RefreshService{Tokens: tokens, Store: s, Accounts: s},
		accounts: &AccountService{
			Store:  s,
			Hasher: cryptox.NewPasswordHasher("test-pepper"),
			Tokens: tokens,
			Now:    clock.Now,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
