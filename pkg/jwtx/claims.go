package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes. Refresh sessions are opaque and stored server-side;
// the constant lives here so every component agrees on it.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType is the intent a token was minted for. It travels in the "type"
// claim and is checked on every decode so one kind can never stand in for
// another.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

// Claims are the JWT claims issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims

	Type TokenType `json:"type"`

	// Email is informational only; the user record is authoritative.
	Email string `json:"email,omitempty"`
}

// NewClaims builds claims for subject expiring ttl after now.
func NewClaims(subject string, typ TokenType, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Type: typ,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer when one is expected.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateType checks that the token was minted for the expected purpose.
func (c *Claims) ValidateType(expected TokenType) error {
	if !c.Type.Valid() || c.Type != expected {
		return ErrInvalidType
	}
	return nil
}

// ValidateExpiry ensures the token has an expiry and it is after now.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	return nil
}
