package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinHS256KeySize is the smallest accepted HMAC key, in bytes.
const MinHS256KeySize = 32

// HS256 signs and verifies tokens with HMAC SHA-256 under one shared secret.
type HS256 struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

var (
	_ Signer   = (*HS256)(nil)
	_ Verifier = (*HS256)(nil)
)

// NewHS256 returns a signer/verifier for secret. The key length is checked
// here, once, so a weak key stops the process at startup.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < MinHS256KeySize {
		return nil, ErrWeakKey
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &HS256{
		secret: key,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (h *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign serializes and MACs the claims. The issuer is filled in when empty.
func (h *HS256) Sign(c Claims) (string, error) {
	if c.Issuer == "" {
		c.Issuer = h.issuer
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := tok.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Verify checks the MAC and the issuer. Expiry is not checked here; callers
// use Claims.ValidateExpiryAt so an expired token can still report its subject.
func (h *HS256) Verify(tokenStr string) (Claims, error) {
	token, err := h.parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, ErrAlgMismatch):
			return Claims{}, ErrAlgMismatch
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
		default:
			return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}
	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
