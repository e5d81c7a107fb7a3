package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

const (
	DefaultBootstrapInvites = 5
	bootstrapInviteTTLDays  = 30
	bootstrapInviteNote     = "Initial invite"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapDisabled     = errors.New("bootstrap disabled")
)

// BootstrapService creates the first administrator on an empty system.
type BootstrapService struct {
	Store   store.Store
	Hasher  CredentialHasher
	Invites *InviteLedger
	Token   string // Pre-configured bootstrap token; empty disables bootstrap
	Now     Clock

	// DefaultInvites is minted when the request leaves invite_count at 0.
	DefaultInvites int
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates a verified admin with the enterprise tier and a batch
// of initial invites, all in one transaction.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	req domain.BootstrapData,
) (domain.BootstrapResult, error) {
	l := slogx.FromContext(ctx)

	// 1. Validate provided token
	if s.Token == "" {
		return domain.BootstrapResult{}, ErrBootstrapDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return domain.BootstrapResult{}, ErrBootstrapUnauthorized
	}

	// 2. Check if already bootstrapped
	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.BootstrapResult{}, err
	} else if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.BootstrapResult{}, ErrBootstrapAlready
	}

	// 3. Validate and hash
	email := domain.NormalizeEmail(req.AdminEmail)
	v := validator{}
	v.check("admin_email", ValidateEmail(email))
	v.check("admin_password", ValidatePassword(req.AdminPassword))
	if req.InviteCount < 0 || req.InviteCount > 100 {
		v.check("invite_count", fmt.Errorf("invite_count must be between 0 and 100"))
	}
	if err := v.err(); err != nil {
		return domain.BootstrapResult{}, err
	}
	count := req.InviteCount
	if count == 0 {
		count = s.DefaultInvites
	}
	if count <= 0 {
		count = DefaultBootstrapInvites
	}

	passHash, err := s.Hasher.Hash(req.AdminPassword)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return domain.BootstrapResult{}, err
	}

	// 4. Admin, tier and invites in a transaction
	now := s.Now.now()
	res := domain.BootstrapResult{AdminID: idx.NewAt(now).String()}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// The emptiness check is repeated under the write lock the store takes
		// when the transaction begins.
		if empty, err := tx.Users().IsEmpty(ctx); err != nil {
			return err
		} else if !empty {
			return ErrBootstrapAlready
		}

		err := tx.Users().CreateUser(ctx, domain.User{
			ID:              res.AdminID,
			Email:           email,
			PasswordHash:    passHash,
			IsActive:        true,
			IsAdmin:         true,
			EmailVerified:   true,
			EmailVerifiedAt: &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}

		err = tx.Tiers().UpsertTier(ctx, domain.Tier{
			ID:        idx.NewAt(now).String(),
			UserID:    res.AdminID,
			Name:      domain.TierEnterprise,
			Features:  domain.EnterpriseFeatures(),
			ValidFrom: now,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create admin tier: %w", err)
		}

		for range count {
			inv, err := s.Invites.CreateIn(ctx, tx, CreateInviteParams{
				CreatedBy: res.AdminID,
				Notes:     bootstrapInviteNote,
				TTLDays:   bootstrapInviteTTLDays,
			})
			if err != nil {
				return err
			}
			res.InviteCodes = append(res.InviteCodes, inv.Code)
		}
		return nil
	})
	if err != nil {
		return domain.BootstrapResult{}, err
	}

	l.Info("successfully bootstrapped system",
		slog.String("admin_user_id", res.AdminID),
		slog.Int("invites", len(res.InviteCodes)),
	)
	return res, nil
}
