// Package redis keeps refresh tokens in Redis. Accounts stay in the SQL
// store; this driver only satisfies store.RefreshTokenStore.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "shopauth"

var errUnavailable = errors.New("redis unavailable")

type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ store.RefreshTokenStore = (*Store)(nil)

// NewStore wraps rdb. An empty prefix defaults to "shopauth".
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Open dials addr and checks the connection.
func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return NewStore(rdb, ""), nil
}

func (s *Store) RefreshTokens(kind domain.PrincipalKind) store.RefreshTokens {
	_, table := store.Tables(kind)
	return &refreshTokens{rdb: s.rdb, ns: s.prefix + ":" + table}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
