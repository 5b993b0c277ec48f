package redis_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	redisstore "github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return redisstore.NewStore(rdb, "test"), mr
}

func token(id, principal, hash string, expires time.Time) domain.RefreshToken {
	return domain.RefreshToken{
		ID:          id,
		PrincipalID: principal,
		TokenHash:   hash,
		ExpiresAt:   expires,
		CreatedAt:   expires.Add(-time.Hour),
	}
}

func TestUpsertAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.RefreshTokens(domain.KindCustomer)
	exp := time.UnixMilli(1_700_000_000_000).UTC()

	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r1", "c1", "h1", exp)))

	got, err := repo.GetRefreshTokenByHash(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, "r1", got.ID)
	require.Equal(t, "c1", got.PrincipalID)
	require.True(t, got.ExpiresAt.Equal(exp))

	byPrincipal, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, got, byPrincipal)

	_, err = repo.GetRefreshTokenByHash(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertReplacesPreviousToken(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.RefreshTokens(domain.KindCustomer)
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r1", "c1", "h1", exp)))
	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r2", "c1", "h2", exp)))

	_, err := repo.GetRefreshTokenByHash(ctx, "h1")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "r2", got.ID)

	// The stale id no longer removes anything.
	require.NoError(t, repo.DeleteRefreshToken(ctx, "r1"))
	_, err = repo.GetRefreshTokenByHash(ctx, "h2")
	require.NoError(t, err)
}

func TestConcurrentUpsertsLeaveOneRecord(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	repo := s.RefreshTokens(domain.KindCustomer)
	exp := time.Now().Add(time.Hour)

	const logins = 32
	errs := make(chan error, logins)
	var wg sync.WaitGroup
	for i := range logins {
		wg.Go(func() {
			id := fmt.Sprintf("r%d", i)
			errs <- repo.UpsertRefreshToken(ctx, token(id, "c1", "h"+id, exp))
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	current, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
	require.NoError(t, err)

	var hashes, ids int
	for _, k := range mr.Keys() {
		switch {
		case strings.HasPrefix(k, "test:refresh_tokens:hash:"):
			hashes++
			require.Equal(t, "test:refresh_tokens:hash:"+current.TokenHash, k)
		case strings.HasPrefix(k, "test:refresh_tokens:id:"):
			ids++
			require.Equal(t, "test:refresh_tokens:id:"+current.ID, k)
		}
	}
	require.Equal(t, 1, hashes)
	require.Equal(t, 1, ids)
}

func TestDeleteStaleIDKeepsNewerLogin(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	repo := s.RefreshTokens(domain.KindCustomer)
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.UpsertRefreshToken(ctx, token("old", "c1", "h-old", exp)))
	require.NoError(t, repo.UpsertRefreshToken(ctx, token("new", "c1", "h-new", exp)))

	// A revocation of the old record that resolved its principal before the
	// newer login landed.
	require.NoError(t, mr.Set("test:refresh_tokens:id:old", "c1"))

	require.NoError(t, repo.DeleteRefreshToken(ctx, "old"))

	got, err := repo.GetRefreshTokenByHash(ctx, "h-new")
	require.NoError(t, err)
	require.Equal(t, "new", got.ID)
	require.False(t, mr.Exists("test:refresh_tokens:id:old"))

	require.NoError(t, repo.DeleteRefreshToken(ctx, "new"))
	_, err = repo.GetRefreshTokenByHash(ctx, "h-new")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.False(t, mr.Exists("test:refresh_tokens:principal:c1"))
}

func TestDeleteExpiredSparesRelogin(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.RefreshTokens(domain.KindCustomer)
	now := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r1", "c1", "h1", now.Add(-time.Minute))))
	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r2", "c1", "h2", now.Add(time.Hour))))

	n, err := repo.DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "r2", got.ID)
}

func TestKindsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.RefreshTokens(domain.KindAdmin).UpsertRefreshToken(ctx, token("r1", "p1", "h1", exp)))

	_, err := s.RefreshTokens(domain.KindCustomer).GetRefreshTokenByHash(ctx, "h1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	t.Run("by id", func(t *testing.T) {
		s, _ := newTestStore(t)
		repo := s.RefreshTokens(domain.KindCustomer)
		require.NoError(t, repo.UpsertRefreshToken(ctx, token("r1", "c1", "h1", exp)))

		require.NoError(t, repo.DeleteRefreshToken(ctx, "r1"))
		require.NoError(t, repo.DeleteRefreshToken(ctx, "r1"))

		_, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("by principal", func(t *testing.T) {
		s, mr := newTestStore(t)
		repo := s.RefreshTokens(domain.KindCustomer)
		require.NoError(t, repo.UpsertRefreshToken(ctx, token("r1", "c1", "h1", exp)))

		n, err := repo.DeleteRefreshTokensByPrincipal(ctx, "c1")
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		n, err = repo.DeleteRefreshTokensByPrincipal(ctx, "c1")
		require.NoError(t, err)
		require.Zero(t, n)

		require.False(t, mr.Exists("test:refresh_tokens:principal:c1"))
		require.False(t, mr.Exists("test:refresh_tokens:hash:h1"))
		require.False(t, mr.Exists("test:refresh_tokens:id:r1"))
	})
}

func TestDeleteExpired(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.RefreshTokens(domain.KindCustomer)
	now := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r1", "c1", "h1", now.Add(-time.Minute))))
	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r2", "c2", "h2", now)))
	require.NoError(t, repo.UpsertRefreshToken(ctx, token("r3", "c3", "h3", now.Add(time.Minute))))

	n, err := repo.DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = repo.GetRefreshTokenByHash(ctx, "h1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetRefreshTokenByHash(ctx, "h2")
	require.NoError(t, err)
	_, err = repo.GetRefreshTokenByHash(ctx, "h3")
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
