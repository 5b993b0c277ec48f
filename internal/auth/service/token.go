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
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// TokenService issues and validates opaque tokens. A token is an HS256 JWT
// sealed by the codec, so clients can neither read nor forge the claims.
//
// Validation failures are always *autherr.Error values.
type TokenService struct {
	Codec    *cryptox.TokenCodec
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.RefreshTokenStore

	Issuer         string
	AccessTTL      time.Duration
	AdminAccessTTL time.Duration
	RefreshTTL     time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) ttl(p domain.Principal, kind domain.TokenKind) time.Duration {
	if kind == domain.TokenRefresh {
		return orDefault(s.RefreshTTL, jwtx.DefaultRefreshTokenTTL)
	}
	if p.Role == domain.RoleAdmin {
		return orDefault(s.AdminAccessTTL, jwtx.DefaultAdminAccessTokenTTL)
	}
	return orDefault(s.AccessTTL, jwtx.DefaultAccessTokenTTL)
}

// Issue mints a token of kind for p and reports when it expires.
func (s *TokenService) Issue(p domain.Principal, kind domain.TokenKind) (string, time.Time, error) {
	jti, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	claims := jwtx.NewClaims(p.Email, p.ID, string(p.Role), kind, s.ttl(p, kind), s.Issuer, now)
	claims.ID = jti

	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	token, err := s.Codec.Encrypt([]byte(signed))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("seal %s token: %w", kind, err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssuePair mints an access and a refresh token for p and stores the refresh
// token's fingerprint, replacing whatever p held before.
func (s *TokenService) IssuePair(ctx context.Context, p domain.Principal) (domain.TokenPair, error) {
	access, accessExp, err := s.Issue(p, domain.TokenAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.Issue(p, domain.TokenRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	rec := domain.RefreshToken{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		TokenHash:   cryptox.FingerprintToken(refresh),
		ExpiresAt:   refreshExp,
		CreatedAt:   s.now(),
	}
	if err := s.Store.RefreshTokens(p.Kind()).UpsertRefreshToken(ctx, rec); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	slogx.FromContext(ctx).Info("token pair issued",
		slog.String("principal_id", p.ID),
		slog.String("role", string(p.Role)),
	)

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// open decrypts and checks the MAC without looking at expiry.
func (s *TokenService) open(token string) (jwtx.Claims, error) {
	plain, err := s.Codec.Decrypt(token)
	if err != nil {
		return jwtx.Claims{}, autherr.InvalidToken(err)
	}
	claims, err := s.Verifier.Verify(string(plain))
	if err != nil {
		return jwtx.Claims{}, autherr.InvalidToken(err)
	}
	return claims, nil
}

func (s *TokenService) checkExpiry(c jwtx.Claims) error {
	if err := c.ValidateExpiryAt(s.now()); err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return autherr.ExpiredToken(c.Subject)
		}
		return autherr.InvalidToken(err)
	}
	return nil
}

// Validate accepts a token of either kind: decrypt, then MAC, then expiry.
func (s *TokenService) Validate(token string) (jwtx.Claims, error) {
	c, err := s.open(token)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if err := s.checkExpiry(c); err != nil {
		return jwtx.Claims{}, err
	}
	return c, nil
}

// ValidateAccess is Validate restricted to access tokens. It backs the
// bearer authentication middleware.
func (s *TokenService) ValidateAccess(token string) (jwtx.Claims, error) {
	return s.validateKind(token, domain.TokenAccess)
}

// ValidateRefresh is Validate restricted to refresh tokens.
func (s *TokenService) ValidateRefresh(token string) (jwtx.Claims, error) {
	return s.validateKind(token, domain.TokenRefresh)
}

func (s *TokenService) validateKind(token string, kind domain.TokenKind) (jwtx.Claims, error) {
	c, err := s.open(token)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if err := c.ValidateKind(kind); err != nil {
		return jwtx.Claims{}, autherr.InvalidToken(err)
	}
	if err := s.checkExpiry(c); err != nil {
		return jwtx.Claims{}, err
	}
	return c, nil
}

// Subject returns the email the token was issued to.
func (s *TokenService) Subject(token string) (string, error) {
	c, err := s.Validate(token)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

func (s *TokenService) PrincipalID(token string) (string, error) {
	c, err := s.Validate(token)
	if err != nil {
		return "", err
	}
	return c.PrincipalID, nil
}

func (s *TokenService) Role(token string) (domain.Role, error) {
	c, err := s.Validate(token)
	if err != nil {
		return "", err
	}
	return domain.Role(c.Role), nil
}

// IsExpired reports whether an authentic token is past its expiry. Tokens
// that fail decryption or the MAC return an error instead.
func (s *TokenService) IsExpired(token string) (bool, error) {
	c, err := s.open(token)
	if err != nil {
		return false, err
	}
	switch err := s.checkExpiry(c); {
	case err == nil:
		return false, nil
	case errors.Is(err, autherr.ErrExpiredToken):
		return true, nil
	default:
		return false, err
	}
}

// ExpiresIn returns the remaining lifetime of an authentic token, negative
// once it has expired.
func (s *TokenService) ExpiresIn(token string) (time.Duration, error) {
	c, err := s.open(token)
	if err != nil {
		return 0, err
	}
	if c.ExpiresAt == nil {
		return 0, autherr.InvalidToken(jwtx.ErrInvalidClaim)
	}
	return c.ExpiresIn(s.now()), nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
