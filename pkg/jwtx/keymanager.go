package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
)

// KeyManager bundles the signer, verifier and (for asymmetric algorithms)
// the public KeySet of one service instance.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier

	// KeySet is nil for HS256; shared secrets are never published.
	KeySet *KeySet

	algorithm string
}

// KeyManagerOptions configures NewKeyManager.
type KeyManagerOptions struct {
	// Algorithm is AlgorithmHS256 or AlgorithmEdDSA.
	Algorithm string

	// Secret is the HS256 shared secret.
	Secret []byte

	// EdDSAKeyPEM is a PKCS8 Ed25519 key. When empty an ephemeral key is
	// generated and every token is invalidated on restart.
	EdDSAKeyPEM []byte

	Issuer string
	Leeway time.Duration
	Now    func() time.Time
}

// NewKeyManager wires signer and verifier for the configured algorithm.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	vopts := VerifyOptions{Issuer: opts.Issuer, Leeway: opts.Leeway, Now: opts.Now}

	switch opts.Algorithm {
	case AlgorithmHS256:
		signer, err := NewSignerHS256(opts.Secret)
		if err != nil {
			return nil, err
		}
		verifier, err := NewVerifierHS256(opts.Secret, vopts)
		if err != nil {
			return nil, err
		}
		return &KeyManager{Signer: signer, Verifier: verifier, algorithm: opts.Algorithm}, nil

	case AlgorithmEdDSA:
		pemKey := opts.EdDSAKeyPEM
		if len(pemKey) == 0 {
			var err error
			if pemKey, err = cryptox.GenerateEd25519Key(); err != nil {
				return nil, err
			}
		}
		key, err := cryptox.ParseEd25519Key(pemKey)
		if err != nil {
			return nil, err
		}
		kid, err := generateKeyID()
		if err != nil {
			return nil, err
		}
		signer, err := NewSignerEdDSA(kid, key)
		if err != nil {
			return nil, err
		}

		keyset := NewKeySet()
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
		}
		return &KeyManager{
			Signer:    signer,
			Verifier:  NewVerifierEdDSA(keyset, vopts),
			KeySet:    keyset,
			algorithm: opts.Algorithm,
		}, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: HS256, EdDSA)", opts.Algorithm)
	}
}

// Algorithm returns the signing algorithm in use.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// PublishesKeys reports whether a JWKS endpoint makes sense.
func (km *KeyManager) PublishesKeys() bool { return km.KeySet != nil }

func generateKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: failed to generate key ID: %w", err)
	}
	return "tra-" + token, nil
}
