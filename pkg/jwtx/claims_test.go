package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "trading-auth"

func TestNewClaims(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := jwtx.NewClaims("user-1", jwtx.TypeAccess, 15*time.Minute, exampleIssuer, now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, jwtx.TypeAccess, c.Type)
	require.Equal(t, exampleIssuer, c.Issuer)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(15*time.Minute), c.ExpiresAt.Time)
	require.NotEmpty(t, c.ID)

	other := jwtx.NewClaims("user-1", jwtx.TypeAccess, 15*time.Minute, exampleIssuer, now)
	require.NotEqual(t, c.ID, other.ID, "jti must be unique per token")
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: exampleIssuer}}

	require.NoError(t, c.ValidateIssuer(exampleIssuer))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
}

func TestValidateType(t *testing.T) {
	access := &jwtx.Claims{Type: jwtx.TypeAccess}
	require.NoError(t, access.ValidateType(jwtx.TypeAccess))
	require.ErrorIs(t, access.ValidateType(jwtx.TypeRefresh), jwtx.ErrInvalidType)

	missing := &jwtx.Claims{}
	require.ErrorIs(t, missing.ValidateType(""), jwtx.ErrInvalidType)

	bogus := &jwtx.Claims{Type: "admin"}
	require.ErrorIs(t, bogus.ValidateType("admin"), jwtx.ErrInvalidType)
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
		require.NoError(t, c.ValidateExpiry(now, 0))
	})

	t.Run("expired", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
		require.ErrorIs(t, c.ValidateExpiry(now, 0), jwtx.ErrExpired)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second))}}
		require.NoError(t, c.ValidateExpiry(now, 5*time.Second))
	})

	t.Run("missing exp", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.ErrorIs(t, c.ValidateExpiry(now, 0), jwtx.ErrInvalidClaim)
	})
}
