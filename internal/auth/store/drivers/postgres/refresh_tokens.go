package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

// RefreshTokensRepository keeps one refresh token row per principal.
type RefreshTokensRepository struct {
	db    DBTX
	table string
}

func NewRefreshTokensRepository(db DBTX, kind domain.PrincipalKind) *RefreshTokensRepository {
	_, table := store.Tables(kind)
	return &RefreshTokensRepository{db: db, table: table}
}

// UpsertRefreshToken replaces the principal's row in one statement against
// the UNIQUE(principal_id) constraint.
func (r *RefreshTokensRepository) UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, principal_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (principal_id) DO UPDATE SET
			id = EXCLUDED.id,
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`, r.table)
	_, err := r.db.ExecContext(ctx, query, t.ID, t.PrincipalID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	return mapConstraint(err)
}

func (r *RefreshTokensRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT id, principal_id, token_hash, expires_at, created_at
		FROM %s
		WHERE token_hash = $1
	`, r.table)
	return r.scan(ctx, query, hash)
}

func (r *RefreshTokensRepository) GetRefreshTokenByPrincipal(ctx context.Context, principalID string) (domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT id, principal_id, token_hash, expires_at, created_at
		FROM %s
		WHERE principal_id = $1
	`, r.table)
	return r.scan(ctx, query, principalID)
}

func (r *RefreshTokensRepository) DeleteRefreshToken(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *RefreshTokensRepository) DeleteRefreshTokensByPrincipal(ctx context.Context, principalID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE principal_id = $1`, r.table)
	return r.exec(ctx, query, principalID)
}

func (r *RefreshTokensRepository) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < $1`, r.table)
	return r.exec(ctx, query, now)
}

func (r *RefreshTokensRepository) exec(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *RefreshTokensRepository) scan(ctx context.Context, query string, arg string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&t.ID, &t.PrincipalID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}
