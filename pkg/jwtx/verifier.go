package jwtx

import "errors"

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Verifier checks the signature of a JWT and gives back its claims. Time
// based claims are left to the caller so it can decide how to report expiry.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrWeakKey     = errors.New("jwtx: signing key must be at least 32 bytes")
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrKindMismatch = errors.New("jwtx: token kind mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)
