package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
)

// Keys is the immutable key material the token pipeline and password
// hashing run on. It is built once at startup.
type Keys struct {
	Codec  *cryptox.TokenCodec
	Signer *jwtx.HS256
	Hasher *cryptox.PasswordHasher
}

// InitKeys validates the configured secrets and loads (or creates) the
// password pepper. Tokens issued before a restart stay valid as long as
// JWT_SECRET and TOKEN_ENCRYPTION_KEY are unchanged.
func InitKeys(cfg Config, logger *slog.Logger) (Keys, error) {
	codec, err := cryptox.NewTokenCodec(cfg.TokenEncryptionKey)
	if err != nil {
		return Keys{}, fmt.Errorf("invalid TOKEN_ENCRYPTION_KEY: %w", err)
	}

	signer, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return Keys{}, fmt.Errorf("invalid JWT_SECRET: %w", err)
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to load pepper: %w", err)
	}

	logger.Info("token keys loaded",
		"issuer", cfg.Issuer,
		"access_ttl", cfg.AccessTTL,
		"admin_access_ttl", cfg.AdminAccessTTL,
		"refresh_ttl", cfg.RefreshTTL,
	)

	return Keys{
		Codec:  codec,
		Signer: signer,
		Hasher: cryptox.NewPasswordHasher(pepper),
	}, nil
}
