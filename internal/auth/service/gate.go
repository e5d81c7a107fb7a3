package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// Gate resolves bearer access tokens to users and applies the admin and
// verified-email checks.
type Gate struct {
	Store store.Store
	Codec *TokenCodec
	Now   Clock
}

var _ httpx.Authenticator = (*Gate)(nil)

// ResolveRequired returns the active user behind token. Every failure to
// authenticate is ErrUnauthenticated; other errors are internal.
func (g *Gate) ResolveRequired(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrUnauthenticated
	}
	info, err := g.Codec.Decode(token, KindAccess)
	if err != nil {
		slogx.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
		return domain.User{}, ErrUnauthenticated
	}

	user, err := g.Store.Users().GetUserByID(ctx, info.SubjectID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUnauthenticated
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return domain.User{}, ErrUnauthenticated
	}
	return user, nil
}

// ResolveOptional is ResolveRequired that treats any authentication
// failure as anonymous. The bool reports whether a user was resolved.
func (g *Gate) ResolveOptional(ctx context.Context, token string) (domain.User, bool, error) {
	user, err := g.ResolveRequired(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// Authenticate adapts the gate to the HTTP middleware.
func (g *Gate) Authenticate(ctx context.Context, token string) (httpx.Principal, error) {
	user, ok, err := g.ResolveOptional(ctx, token)
	if err != nil || !ok {
		return nil, err
	}
	return user, nil
}

func (g *Gate) RequireAdmin(user domain.User) error {
	if !user.IsAdmin {
		return ErrPermissionDenied
	}
	return nil
}

func (g *Gate) RequireVerified(user domain.User) error {
	if !user.EmailVerified {
		return ErrPermissionDenied
	}
	return nil
}

// FeatureLimits merges the user's active tier over the defaults.
func (g *Gate) FeatureLimits(ctx context.Context, userID string) (domain.Features, error) {
	now := g.Now.now()
	tier, err := g.Store.Tiers().GetTierByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.EffectiveFeatures(nil, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return domain.EffectiveFeatures(&tier, now), nil
}
