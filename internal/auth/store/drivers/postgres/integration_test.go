//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "shop",
			"POSTGRES_PASSWORD": "shop",
			"POSTGRES_DB":       "shopauth",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://shop:shop@%s:%s/shopauth?sslmode=disable", host, port.Port())
}

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()

	s, err := postgres.NewStore(startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.ApplyMigrations())

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.Accounts(domain.KindCustomer).CreateAccount(ctx, domain.Account{
		ID: "c1", Email: "ann@example.com", Name: "Ann", PasswordHash: "h", CreatedAt: now, UpdatedAt: now,
	}))

	repo := s.RefreshTokens(domain.KindCustomer)
	require.NoError(t, repo.UpsertRefreshToken(ctx, domain.RefreshToken{
		ID: "r1", PrincipalID: "c1", TokenHash: "first", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	require.NoError(t, repo.UpsertRefreshToken(ctx, domain.RefreshToken{
		ID: "r2", PrincipalID: "c1", TokenHash: "second", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	_, err = repo.GetRefreshTokenByHash(ctx, "first")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "second", got.TokenHash)

	n, err := repo.DeleteExpiredRefreshTokens(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestPostgresStore_ConcurrentUpsert(t *testing.T) {
	ctx := context.Background()

	s, err := postgres.NewStore(startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.Accounts(domain.KindCustomer).CreateAccount(ctx, domain.Account{
		ID: "c1", Email: "ann@example.com", Name: "Ann", PasswordHash: "h", CreatedAt: now, UpdatedAt: now,
	}))

	repo := s.RefreshTokens(domain.KindCustomer)

	const logins = 32
	errs := make(chan error, logins)
	var wg sync.WaitGroup
	for i := range logins {
		wg.Go(func() {
			errs <- repo.UpsertRefreshToken(ctx, domain.RefreshToken{
				ID:          fmt.Sprintf("r%d", i),
				PrincipalID: "c1",
				TokenHash:   fmt.Sprintf("hash-%d", i),
				ExpiresAt:   now.Add(time.Hour),
				CreatedAt:   now,
			})
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	current, err := repo.GetRefreshTokenByPrincipal(ctx, "c1")
	require.NoError(t, err)

	live := 0
	for i := range logins {
		got, err := repo.GetRefreshTokenByHash(ctx, fmt.Sprintf("hash-%d", i))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		require.NoError(t, err)
		require.Equal(t, current.ID, got.ID)
		live++
	}
	require.Equal(t, 1, live)
}
