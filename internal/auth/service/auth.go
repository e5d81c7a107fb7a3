package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/metricsx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// CredentialHasher hashes passwords and reports hashes that should be
// upgraded to the primary algorithm.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
	NeedsRehash(encodedHash string) bool
}

// AuthService runs register, login, refresh, logout and password change.
type AuthService struct {
	Store     store.Store
	Hasher    CredentialHasher
	Codec     *TokenCodec
	Invites   *InviteLedger
	Sessions  *SessionStore
	Notifier  Notifier
	Outbox    *Outbox
	Metrics   *metricsx.Metrics
	AccessTTL time.Duration
	Now       Clock

	dummyOnce sync.Once
	dummyHash string
}

// RegisterParams is a registration request.
type RegisterParams struct {
	Email      string
	Password   string
	InviteCode string
	Client     domain.ClientInfo
}

// Profile is the authenticated user's view of their account.
type Profile struct {
	User     domain.User
	Tier     string
	Features domain.Features
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

// Register creates an account from an invite and signs it in.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (domain.TokenPair, error) {
	pair, err := s.register(ctx, p)
	s.Metrics.AuthEvent("register", err)
	return pair, err
}

func (s *AuthService) register(ctx context.Context, p RegisterParams) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	email := domain.NormalizeEmail(p.Email)

	// 1. Validate before touching the store.
	v := validator{}
	v.check("email", ValidateEmail(email))
	v.check("password", ValidatePassword(p.Password))
	v.check("invite_code", ValidateInviteCode(p.InviteCode))
	if err := v.err(); err != nil {
		return domain.TokenPair{}, err
	}

	// 2. Hash outside the transaction; it is the slow part.
	hash, err := s.Hasher.Hash(p.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.TokenPair{}, err
	}

	// 3. User, invite, tier and session commit or fail together.
	var (
		user    domain.User
		refresh string
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		now := s.Now.now()

		if _, err := tx.Users().GetUserByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check email: %w", err)
		}

		user = domain.User{
			ID:           idx.NewAt(now).String(),
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		inv, err := s.Invites.Redeem(ctx, tx, p.InviteCode, email, user.ID)
		if err != nil {
			return err
		}

		err = tx.Tiers().UpsertTier(ctx, domain.Tier{
			ID:        idx.NewAt(now).String(),
			UserID:    user.ID,
			Name:      domain.TierFree,
			Features:  domain.Features{},
			ValidFrom: now,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create tier: %w", err)
		}

		refresh, _, err = s.Sessions.CreateIn(ctx, tx, user.ID, p.Client)
		if err != nil {
			return err
		}

		log.Info("user registered",
			slog.String("user_id", user.ID),
			slog.String("invite_id", inv.ID),
		)
		return nil
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	// 4. Tokens are only minted for committed accounts.
	pair, err := s.tokenPair(user.ID, refresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if s.Notifier != nil {
		s.Outbox.Go(ctx, "welcome", func(ctx context.Context) error {
			return s.Notifier.SendWelcome(ctx, user.Email)
		})
	}
	return pair, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, client domain.ClientInfo) (domain.TokenPair, error) {
	pair, err := s.login(ctx, email, password, client)
	s.Metrics.AuthEvent("login", err)
	return pair, err
}

func (s *AuthService) login(ctx context.Context, email, password string, client domain.ClientInfo) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	// 1. Look up and verify. A miss still pays for one hash comparison.
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, fmt.Errorf("get user: %w", err)
		}
		s.Hasher.Verify(password, s.dummy())
		log.Info("login failed", slog.String("reason", "unknown_email"))
		return domain.TokenPair{}, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(password, user.PasswordHash) {
		log.Info("login failed", slog.String("reason", "bad_password"), slog.String("user_id", user.ID))
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	// 2. Only a caller who knows the password learns the account is inactive.
	if !user.IsActive {
		log.Info("login refused for inactive account", slog.String("user_id", user.ID))
		return domain.TokenPair{}, ErrAccountInactive
	}

	// 3. Opportunistic hash upgrade.
	s.maybeRehash(ctx, user, password)

	// 4. Record the login and open a session together.
	var refresh string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateLastLogin(ctx, user.ID, s.Now.now()); err != nil {
			return fmt.Errorf("update last login: %w", err)
		}
		var err error
		refresh, _, err = s.Sessions.CreateIn(ctx, tx, user.ID, client)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return s.tokenPair(user.ID, refresh)
}

func (s *AuthService) maybeRehash(ctx context.Context, user domain.User, password string) {
	if !s.Hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	log := slogx.FromContext(ctx)
	hash, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash, s.Now.now())
	}
	if err != nil {
		log.Warn("password rehash failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	log.Info("password hash upgraded", slog.String("user_id", user.ID))
}

// dummy is a real hash of a random value, so an unknown-email login costs
// the same as a wrong password.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash(idx.New().String())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Refresh rotates a refresh token and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	s.Metrics.AuthEvent("refresh", err)
	return pair, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	rot, err := s.Sessions.ValidateAndRotate(ctx, refreshToken, func(u domain.User) error {
		if !u.IsActive {
			return ErrAccountInactive
		}
		return nil
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return s.tokenPair(rot.User.ID, rot.RefreshToken)
}

// Logout revokes every session of the user. Calling it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	n, err := s.Sessions.RevokeAll(ctx, userID, RevokeLogout)
	s.Metrics.AuthEvent("logout", err)
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user logged out", slog.String("user_id", userID), slog.Int64("sessions", n))
	return nil
}

// ChangePassword replaces the password and signs the user out everywhere,
// including the calling device.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	err := s.changePassword(ctx, userID, current, next)
	s.Metrics.AuthEvent("change_password", err)
	return err
}

func (s *AuthService) changePassword(ctx context.Context, userID, current, next string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnauthenticated
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	// 1. The current password must verify before anything else is said.
	if !s.Hasher.Verify(current, user.PasswordHash) {
		log.Info("password change refused", slog.String("user_id", userID))
		return ErrInvalidCredentials
	}

	// 2. Validate and hash the new one.
	v := validator{}
	v.check("new_password", ValidatePassword(next))
	if err := v.err(); err != nil {
		return err
	}
	hash, err := s.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// 3. Store it and revoke every session in one transaction.
	var revoked int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash, s.Now.now()); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		revoked, err = s.Sessions.RevokeAllIn(ctx, tx, userID, RevokePasswordChange)
		return err
	})
	if err != nil {
		return err
	}

	log.Info("password changed", slog.String("user_id", userID), slog.Int64("sessions_revoked", revoked))
	return nil
}

// Me returns the profile with tier name and effective feature limits.
func (s *AuthService) Me(ctx context.Context, user domain.User) (Profile, error) {
	now := s.Now.now()
	tier, err := s.Store.Tiers().GetTierByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Profile{User: user, Tier: domain.TierFree, Features: domain.EffectiveFeatures(nil, now)}, nil
	case err != nil:
		return Profile{}, fmt.Errorf("get tier: %w", err)
	}

	name := tier.Name
	if !tier.IsActive(now) {
		name = domain.TierFree
	}
	return Profile{User: user, Tier: name, Features: domain.EffectiveFeatures(&tier, now)}, nil
}

func (s *AuthService) tokenPair(userID, refresh string) (domain.TokenPair, error) {
	ttl := s.accessTTL()
	access, err := s.Codec.Issue(userID, KindAccess, ttl)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: ttl}, nil
}
