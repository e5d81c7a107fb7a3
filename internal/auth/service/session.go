package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/metricsx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// Revocation reasons, as reported to metrics.
const (
	RevokeRotated        = "rotated"
	RevokeLogout         = "logout"
	RevokePasswordChange = "password_change"
)

// SessionStore issues opaque refresh tokens and keeps their server-side
// sessions. Only the fingerprint of a token is persisted.
type SessionStore struct {
	Store   store.Store
	TTL     time.Duration
	Metrics *metricsx.Metrics
	Now     Clock
}

// Rotation is the result of a successful refresh.
type Rotation struct {
	User         domain.User
	Session      domain.Session
	RefreshToken string
}

func (s *SessionStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultRefreshTokenTTL
	}
	return s.TTL
}

// Create opens a session for userID and returns the raw refresh token.
func (s *SessionStore) Create(ctx context.Context, userID string, client domain.ClientInfo) (string, error) {
	token, _, err := s.CreateIn(ctx, s.Store, userID, client)
	return token, err
}

// CreateIn is Create against db, which may be a transaction.
func (s *SessionStore) CreateIn(
	ctx context.Context,
	db store.Store,
	userID string,
	client domain.ClientInfo,
) (string, domain.Session, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.Now.now()
	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	}
	if err := db.Sessions().CreateSession(ctx, sess); err != nil {
		return "", domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return token, sess, nil
}

// ValidateAndRotate exchanges a refresh token for a new one. The presented
// session is revoked and its replacement created in one transaction; if
// admit rejects the owning user nothing is written.
func (s *SessionStore) ValidateAndRotate(
	ctx context.Context,
	token string,
	admit func(domain.User) error,
) (Rotation, error) {
	log := slogx.FromContext(ctx)
	if token == "" {
		return Rotation{}, ErrInvalidSession
	}
	hash := cryptox.FingerprintToken(token)

	var out Rotation
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		now := s.Now.now()

		// 1. Find the live session.
		old, err := tx.Sessions().GetSessionByTokenHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidSession
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if !old.IsValid(now) {
			log.Info("refresh with dead session",
				slog.String("session_id", old.ID),
				slog.Bool("revoked", old.IsRevoked()),
			)
			return ErrInvalidSession
		}

		// 2. Load the owner.
		user, err := tx.Users().GetUserByID(ctx, old.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidSession
		}
		if err != nil {
			return fmt.Errorf("get session owner: %w", err)
		}
		if admit != nil {
			if err := admit(user); err != nil {
				return err
			}
		}

		// 3. Revoke, guarded so a concurrent refresh of the same token loses.
		if err := tx.Sessions().RevokeSession(ctx, old.ID, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				log.Warn("refresh token replayed", slog.String("session_id", old.ID))
				return ErrInvalidSession
			}
			return fmt.Errorf("revoke session: %w", err)
		}

		// 4. Replacement with the same client metadata.
		raw, sess, err := s.CreateIn(ctx, tx, user.ID, domain.ClientInfo{IP: old.IPAddress, UserAgent: old.UserAgent})
		if err != nil {
			return err
		}
		out = Rotation{User: user, Session: sess, RefreshToken: raw}
		return nil
	})
	if err != nil {
		return Rotation{}, err
	}

	s.Metrics.SessionsRevoked(RevokeRotated, 1)
	return out, nil
}

// RevokeAll revokes every open session of userID and reports how many.
func (s *SessionStore) RevokeAll(ctx context.Context, userID, reason string) (int64, error) {
	return s.RevokeAllIn(ctx, s.Store, userID, reason)
}

// RevokeAllIn is RevokeAll against db, which may be a transaction.
func (s *SessionStore) RevokeAllIn(ctx context.Context, db store.Store, userID, reason string) (int64, error) {
	n, err := db.Sessions().RevokeUserSessions(ctx, userID, s.Now.now())
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	s.Metrics.SessionsRevoked(reason, n)
	return n, nil
}

// ListActive returns the user's live sessions, newest first.
func (s *SessionStore) ListActive(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.Store.Sessions().ListActiveSessions(ctx, userID, s.Now.now())
}

// PruneExpired deletes sessions that expired or were revoked before cutoff.
func (s *SessionStore) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.Store.Sessions().DeleteStaleSessions(ctx, before)
}
