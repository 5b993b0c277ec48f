package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// RefreshService owns the refresh-token lifecycle. Refresh tokens are not
// rotated: a successful refresh hands the same refresh token back.
type RefreshService struct {
	Tokens   *TokenService
	Store    store.RefreshTokenStore
	Accounts store.AccountStore
}

// ValidateRefreshToken checks a presented refresh token against the store
// first and only then against the codec and MAC. An expired record is
// deleted before ExpiredToken is returned.
func (s *RefreshService) ValidateRefreshToken(ctx context.Context, kind domain.PrincipalKind, token string) (jwtx.Claims, domain.RefreshToken, error) {
	log := slogx.FromContext(ctx)
	repo := s.Store.RefreshTokens(kind)

	rec, err := repo.GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jwtx.Claims{}, domain.RefreshToken{}, autherr.TokenNotFound()
		}
		return jwtx.Claims{}, domain.RefreshToken{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	if rec.Expired(s.Tokens.now()) {
		log.Warn("refresh token expired", slog.String("principal_id", rec.PrincipalID))
		if err := repo.DeleteRefreshToken(ctx, rec.ID); err != nil {
			log.Error("failed to delete expired refresh token", "error", err)
		}
		var subject string
		if c, err := s.Tokens.open(token); err == nil {
			subject = c.Subject
		}
		return jwtx.Claims{}, domain.RefreshToken{}, autherr.ExpiredToken(subject)
	}

	claims, err := s.Tokens.ValidateRefresh(token)
	if err != nil {
		return jwtx.Claims{}, domain.RefreshToken{}, err
	}
	if claims.PrincipalID != rec.PrincipalID {
		return jwtx.Claims{}, domain.RefreshToken{}, autherr.InvalidToken(errors.New("refresh token principal mismatch"))
	}
	return claims, rec, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token
// issued to the account the stored record belongs to.
func (s *RefreshService) RefreshAccessToken(ctx context.Context, kind domain.PrincipalKind, token string) (domain.RefreshResponse, error) {
	_, rec, err := s.ValidateRefreshToken(ctx, kind, token)
	if err != nil {
		return domain.RefreshResponse{}, err
	}

	acct, err := s.Accounts.Accounts(kind).GetAccountByID(ctx, rec.PrincipalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshResponse{}, autherr.TokenNotFound()
		}
		return domain.RefreshResponse{}, fmt.Errorf("load principal: %w", err)
	}

	p := acct.Principal()
	access, exp, err := s.Tokens.Issue(p, domain.TokenAccess)
	if err != nil {
		return domain.RefreshResponse{}, err
	}

	slogx.FromContext(ctx).Info("access token refreshed", slog.String("principal_id", p.ID))

	return domain.RefreshResponse{
		AccessToken:  access,
		RefreshToken: token,
		ExpiresIn:    int64(exp.Sub(s.Tokens.now()) / time.Second),
	}, nil
}

// Revoke deletes the record behind token. Unknown tokens are ignored.
func (s *RefreshService) Revoke(ctx context.Context, kind domain.PrincipalKind, token string) error {
	repo := s.Store.RefreshTokens(kind)

	rec, err := repo.GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := repo.DeleteRefreshToken(ctx, rec.ID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("refresh token revoked", slog.String("principal_id", rec.PrincipalID))
	return nil
}

// RevokeAll removes every refresh token the principal holds.
func (s *RefreshService) RevokeAll(ctx context.Context, kind domain.PrincipalKind, principalID string) error {
	n, err := s.Store.RefreshTokens(kind).DeleteRefreshTokensByPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("refresh tokens revoked",
		slog.String("principal_id", principalID),
		slog.Int64("count", n),
	)
	return nil
}

// Exists reports whether token is stored and its record has not expired.
func (s *RefreshService) Exists(ctx context.Context, kind domain.PrincipalKind, token string) (bool, error) {
	rec, err := s.Store.RefreshTokens(kind).GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !rec.Expired(s.Tokens.now()), nil
}

// CountActive returns how many unexpired refresh tokens the principal holds,
// which is never more than one.
func (s *RefreshService) CountActive(ctx context.Context, kind domain.PrincipalKind, principalID string) (int, error) {
	rec, err := s.Store.RefreshTokens(kind).GetRefreshTokenByPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if rec.Expired(s.Tokens.now()) {
		return 0, nil
	}
	return 1, nil
}

func (s *RefreshService) DeleteExpired(ctx context.Context, kind domain.PrincipalKind, now time.Time) (int64, error) {
	return s.Store.RefreshTokens(kind).DeleteExpiredRefreshTokens(ctx, now)
}
