package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

// Key layout, per principal kind namespace:
//
//	<ns>:hash:<tokenHash>      HASH  the record
//	<ns>:principal:<id>        STRING tokenHash of the principal's record
//	<ns>:id:<recordID>         STRING principal id
//	<ns>:expiry                ZSET  principal id scored by expires_at (ms)
type refreshTokens struct {
	rdb redis.UniversalClient
	ns  string
}

func (r *refreshTokens) hashKey(hash string) string    { return r.ns + ":hash:" + hash }
func (r *refreshTokens) principalKey(id string) string { return r.ns + ":principal:" + id }
func (r *refreshTokens) idKey(id string) string        { return r.ns + ":id:" + id }
func (r *refreshTokens) expiryKey() string             { return r.ns + ":expiry" }

func (r *refreshTokens) UpsertRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	keys := []string{
		r.principalKey(t.PrincipalID),
		r.hashKey(t.TokenHash),
		r.idKey(t.ID),
		r.expiryKey(),
	}
	err := upsertLua.Run(ctx, r.rdb, keys,
		r.ns, t.ID, t.PrincipalID, t.TokenHash,
		t.ExpiresAt.UnixMilli(), t.CreatedAt.UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return nil
}

func (r *refreshTokens) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	fields, err := r.rdb.HGetAll(ctx, r.hashKey(hash)).Result()
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return decode(fields)
}

// GetRefreshTokenByPrincipal follows the principal pointer to its record.
func (r *refreshTokens) GetRefreshTokenByPrincipal(ctx context.Context, principalID string) (domain.RefreshToken, error) {
	hash, err := r.rdb.Get(ctx, r.principalKey(principalID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.RefreshToken{}, store.ErrNotFound
	}
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return r.GetRefreshTokenByHash(ctx, hash)
}

func (r *refreshTokens) DeleteRefreshToken(ctx context.Context, id string) error {
	err := deleteByIDLua.Run(ctx, r.rdb, []string{r.idKey(id), r.expiryKey()}, r.ns, id).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return nil
}

func (r *refreshTokens) DeleteRefreshTokensByPrincipal(ctx context.Context, principalID string) (int64, error) {
	n, err := deleteByPrincipalLua.Run(ctx, r.rdb, []string{r.expiryKey()}, r.ns, principalID).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return n, nil
}

// DeleteExpiredRefreshTokens removes every record whose expiry is strictly
// before now, using the expiry index rather than a key scan.
func (r *refreshTokens) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	n, err := deleteExpiredLua.Run(ctx, r.rdb, []string{r.expiryKey()}, r.ns, now.UnixMilli()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return n, nil
}

func decode(fields map[string]string) (domain.RefreshToken, error) {
	if len(fields) == 0 {
		return domain.RefreshToken{}, store.ErrNotFound
	}

	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("decode expires_at: %w", err)
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("decode created_at: %w", err)
	}

	return domain.RefreshToken{
		ID:          fields["id"],
		PrincipalID: fields["principal_id"],
		TokenHash:   fields["token_hash"],
		ExpiresAt:   time.UnixMilli(expires).UTC(),
		CreatedAt:   time.UnixMilli(created).UTC(),
	}, nil
}
