package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager for the configured algorithm.
//
// Algorithms:
//   - "HS256": tokens are signed with SECRET_KEY. Nothing is published;
//     every service that verifies tokens needs the same secret.
//   - "EdDSA": tokens are signed with an Ed25519 key and the public half is
//     served at /auth/.well-known/jwks.json. Without AUTH_EDDSA_KEY_FILE the
//     key is generated on startup and all existing tokens become invalid
//     when the service restarts.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.SigningAlg,
		Issuer:    cfg.Issuer,
		Leeway:    cfg.TokenLeeway,
	}

	switch cfg.SigningAlg {
	case jwtx.AlgorithmHS256:
		opts.Secret = []byte(cfg.SecretKey)

	case jwtx.AlgorithmEdDSA:
		if cfg.EdDSAKeyFile != "" {
			pemKey, err := os.ReadFile(cfg.EdDSAKeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read EdDSA key file: %w", err)
			}
			opts.EdDSAKeyPEM = pemKey
		}
	}

	keyManager, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing keys ready",
		"algorithm", keyManager.Algorithm(),
		"issuer", cfg.Issuer,
		"publishes_jwks", keyManager.PublishesKeys(),
	)
	if cfg.SigningAlg == jwtx.AlgorithmEdDSA && cfg.EdDSAKeyFile == "" {
		logger.Warn("using an ephemeral EdDSA key, all existing tokens are now invalid")
	}

	return keyManager, nil
}
