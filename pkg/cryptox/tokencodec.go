package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// TokenKeySize is the AES-256 key length in bytes. Keys are supplied as 64
// hex characters.
const TokenKeySize = 32

var (
	// ErrInvalidToken is the only error Decrypt ever returns. Callers must not
	// be able to tell a bad tag from bad base64 or a short envelope.
	ErrInvalidToken = errors.New("cryptox: invalid token")

	// ErrInvalidKey reports key material that is not 32 bytes of hex.
	ErrInvalidKey = errors.New("cryptox: encryption key must be 64 hex characters (256 bits)")
)

// TokenCodec seals opaque payloads into URL-safe envelopes using AES-256-GCM.
// The envelope layout is: [12-byte nonce][ciphertext][16-byte auth tag],
// encoded as base64url without padding.
//
// A TokenCodec is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	aead cipher.AEAD
}

// NewTokenCodec validates a hex-encoded 256-bit key and prepares the cipher.
// A short or malformed key is rejected here rather than on first use.
func NewTokenCodec(hexKey string) (*TokenCodec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != TokenKeySize {
		return nil, ErrInvalidKey
	}
	return newTokenCodec(key)
}

// NewTokenCodecFromBytes is like NewTokenCodec but takes raw key bytes.
func NewTokenCodecFromBytes(key []byte) (*TokenCodec, error) {
	if len(key) != TokenKeySize {
		return nil, ErrInvalidKey
	}
	return newTokenCodec(key)
}

func newTokenCodec(key []byte) (*TokenCodec, error) {
	// Create AES-256 cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM mode (provides authentication)
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &TokenCodec{aead: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// base64url envelope. Two calls with the same input never produce the same
// output.
func (c *TokenCodec) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// gcm.Seal appends the ciphertext and auth tag to nonce
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Every failure, whether
// malformed encoding, truncation, a wrong key or tampering, is reported as
// ErrInvalidToken.
func (c *TokenCodec) Decrypt(envelope string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrInvalidToken
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return nil, ErrInvalidToken
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return plaintext, nil
}

// GenerateTokenKey returns a new random key in the hex form NewTokenCodec
// expects.
func GenerateTokenKey() (string, error) {
	key := make([]byte, TokenKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
