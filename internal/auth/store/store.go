package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Customer and admin principals live in parallel tables of
// identical shape, so every repository is selected by kind.
type Store interface {
	AccountStore
	RefreshTokenStore

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// AccountStore hands out the account repository for a principal kind.
type AccountStore interface {
	Accounts(kind domain.PrincipalKind) Accounts
}

// RefreshTokenStore hands out the refresh-token repository for a principal
// kind. It is split from Store so refresh tokens can live in a different
// backend (e.g. Redis) from accounts.
type RefreshTokenStore interface {
	RefreshTokens(kind domain.PrincipalKind) RefreshTokens
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByEmail is used during login.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByID loads the principal behind a refresh token.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)
}

type RefreshTokens interface {
	// UpsertRefreshToken stores t as the principal's only refresh token,
	// replacing any previous one in a single statement. Last writer wins.
	UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash looks a record up by token fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// GetRefreshTokenByPrincipal returns the principal's current record.
	GetRefreshTokenByPrincipal(ctx context.Context, principalID string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes one record by id. Deleting a missing record
	// is not an error.
	DeleteRefreshToken(ctx context.Context, id string) error

	// DeleteRefreshTokensByPrincipal removes the principal's record and
	// reports how many rows went.
	DeleteRefreshTokensByPrincipal(ctx context.Context, principalID string) (int64, error)

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
