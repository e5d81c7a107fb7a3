package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
)

// TokenKind is the intent a token is minted for.
type TokenKind = jwtx.TokenType

const (
	KindAccess  = jwtx.TypeAccess
	KindRefresh = jwtx.TypeRefresh
)

// TokenInfo is what a successfully decoded token proves.
type TokenInfo struct {
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies typed, expiring bearer tokens.
type TokenCodec struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	// Now overrides the issue clock; verification uses the verifier's own.
	Now Clock
}

// NewTokenCodec binds a codec to the key manager's signer and verifier.
func NewTokenCodec(km *jwtx.KeyManager, issuer string, now Clock) *TokenCodec {
	return &TokenCodec{Signer: km.Signer, Verifier: km.Verifier, Issuer: issuer, Now: now}
}

// Issue mints a token of the given kind for subjectID.
func (c *TokenCodec) Issue(subjectID string, kind TokenKind, ttl time.Duration) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("issue token: unknown kind %q", kind)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}
	token, err := c.Signer.Sign(jwtx.NewClaims(subjectID, kind, ttl, c.Issuer, c.Now.now()))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return token, nil
}

// Decode verifies token and checks it was minted as expected. Every failure
// is an *InvalidTokenError whose reason never includes library detail.
func (c *TokenCodec) Decode(token string, expected TokenKind) (TokenInfo, error) {
	claims, err := c.Verifier.Verify(token)
	if err != nil {
		return TokenInfo{}, &InvalidTokenError{Reason: tokenFailureReason(err)}
	}
	if err := claims.ValidateType(expected); err != nil {
		return TokenInfo{}, &InvalidTokenError{Reason: tokenFailureReason(err)}
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return TokenInfo{}, &InvalidTokenError{Reason: "invalid token"}
	}
	return TokenInfo{
		SubjectID: claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return "token has expired"
	case errors.Is(err, jwtx.ErrInvalidSig), errors.Is(err, jwtx.ErrUnknownKID):
		return "invalid token signature"
	case errors.Is(err, jwtx.ErrMalformed):
		return "malformed token"
	case errors.Is(err, jwtx.ErrInvalidType):
		return "invalid token type"
	default:
		return "invalid token"
	}
}
