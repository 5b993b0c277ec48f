package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

type refreshTokensRepo struct {
	db    dbtx
	table string
}

func newRefreshTokensRepo(db dbtx, kind domain.PrincipalKind) *refreshTokensRepo {
	_, table := store.Tables(kind)
	return &refreshTokensRepo{db: db, table: table}
}

// UpsertRefreshToken relies on the UNIQUE(principal_id) constraint so two
// concurrent logins can never leave two live rows.
func (r *refreshTokensRepo) UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, principal_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(principal_id) DO UPDATE SET
			id = excluded.id,
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`, r.table)

	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.PrincipalID, t.TokenHash, toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	q := fmt.Sprintf(`SELECT id, principal_id, token_hash, expires_at, created_at
		FROM %s WHERE token_hash = ?`, r.table)
	return scanRefreshToken(r.db.QueryRowContext(ctx, q, hash))
}

func (r *refreshTokensRepo) GetRefreshTokenByPrincipal(ctx context.Context, principalID string) (domain.RefreshToken, error) {
	q := fmt.Sprintf(`SELECT id, principal_id, token_hash, expires_at, created_at
		FROM %s WHERE principal_id = ?`, r.table)
	return scanRefreshToken(r.db.QueryRowContext(ctx, q, principalID))
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table), id)
	return err
}

func (r *refreshTokensRepo) DeleteRefreshTokensByPrincipal(ctx context.Context, principalID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE principal_id = ?`, r.table), principalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE expires_at < ?`, r.table), toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRefreshToken(row rowScanner) (domain.RefreshToken, error) {
	var (
		t                domain.RefreshToken
		expires, created int64
	)
	if err := row.Scan(&t.ID, &t.PrincipalID, &t.TokenHash, &expires, &created); err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.ExpiresAt = fromMillis(expires)
	t.CreatedAt = fromMillis(created)
	return t, nil
}
