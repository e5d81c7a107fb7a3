package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinHS256SecretLen is the shortest shared secret accepted for HS256.
const MinHS256SecretLen = 32

var ErrWeakSecret = errors.New("jwtx: HS256 secret must be at least 32 bytes")

// HS256Signer signs tokens with a shared secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHS256SecretLen {
		return nil, ErrWeakSecret
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return "" }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// HS256Verifier validates tokens signed with the same shared secret.
type HS256Verifier struct {
	secret []byte
	opts   VerifyOptions
}

// NewVerifierHS256 creates an HS256 verifier.
func NewVerifierHS256(secret []byte, opts VerifyOptions) (*HS256Verifier, error) {
	if len(secret) < MinHS256SecretLen {
		return nil, ErrWeakSecret
	}
	return &HS256Verifier{secret: secret, opts: opts}, nil
}

func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	claims, err := parse(tokenStr, jwt.SigningMethodHS256.Alg(), func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts)
	if err != nil {
		return Claims{}, err
	}
	return *claims, nil
}
