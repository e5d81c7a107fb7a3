package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/metricsx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

const (
	DefaultInviteCodeLength = 8
	DefaultInviteTTLDays    = 7

	// maxCodeAttempts bounds regeneration after unique-constraint collisions.
	maxCodeAttempts = 10
)

var errCodeSpaceExhausted = errors.New("could not generate a unique invite code")

// InviteLedger mints, redeems, revokes and lists registration invites.
type InviteLedger struct {
	Store          store.Store
	CodeLength     int
	DefaultTTLDays int
	Notifier       Notifier
	Outbox         *Outbox
	Metrics        *metricsx.Metrics
	Now            Clock
}

// CreateInviteParams describes a new invite. TTLDays zero means the ledger
// default.
type CreateInviteParams struct {
	CreatedBy string
	InvitedBy string // creator's email, used in the notification
	Email     string
	Notes     string
	TTLDays   int
}

func (l *InviteLedger) codeLength() int {
	if l.CodeLength <= 0 {
		return DefaultInviteCodeLength
	}
	return l.CodeLength
}

func (l *InviteLedger) defaultTTLDays() int {
	if l.DefaultTTLDays <= 0 {
		return DefaultInviteTTLDays
	}
	return l.DefaultTTLDays
}

// GenerateCode returns a fresh candidate code. Uniqueness is decided by the
// store on insert.
func (l *InviteLedger) GenerateCode() (string, error) {
	return cryptox.GenerateCode(l.codeLength(), cryptox.InviteAlphabet)
}

// Create persists a new invite and, when it is pinned to an email, sends
// the invitation in the background.
func (l *InviteLedger) Create(ctx context.Context, p CreateInviteParams) (domain.Invite, error) {
	inv, err := l.CreateIn(ctx, l.Store, p)
	l.Metrics.AuthEvent("invite_create", err)
	if err != nil {
		return domain.Invite{}, err
	}

	if inv.Email != "" && l.Notifier != nil {
		l.Outbox.Go(ctx, "invite", func(ctx context.Context) error {
			return l.Notifier.SendInvite(ctx, inv.Email, inv.Code, p.InvitedBy)
		})
	}
	return inv, nil
}

// CreateIn is Create against db, which may be a transaction, without the
// notification.
func (l *InviteLedger) CreateIn(ctx context.Context, db store.Store, p CreateInviteParams) (domain.Invite, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate.
	if p.TTLDays == 0 {
		p.TTLDays = l.defaultTTLDays()
	}
	p.Email = domain.NormalizeEmail(p.Email)
	p.Notes = strings.TrimSpace(p.Notes)

	v := validator{}
	v.check("expires_in_days", ValidateInviteTTLDays(p.TTLDays))
	if p.Email != "" {
		v.check("email", ValidateEmail(p.Email))
	}
	if len(p.Notes) > MaxInviteNotesLen {
		v.check("notes", fmt.Errorf("notes must be at most %d characters", MaxInviteNotesLen))
	}
	if err := v.err(); err != nil {
		return domain.Invite{}, err
	}

	// 2. Insert, regenerating the code when the unique index rejects it.
	now := l.Now.now()
	inv := domain.Invite{
		ID:        idx.NewAt(now).String(),
		Email:     p.Email,
		CreatedBy: p.CreatedBy,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, p.TTLDays),
		Notes:     p.Notes,
	}
	for attempt := 1; ; attempt++ {
		code, err := l.GenerateCode()
		if err != nil {
			return domain.Invite{}, err
		}
		inv.Code = code

		err = db.Invites().CreateInvite(ctx, inv)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			log.Error("failed to create invite", slog.Any("error", err))
			return domain.Invite{}, fmt.Errorf("create invite: %w", err)
		}
		if attempt == maxCodeAttempts {
			log.Error("invite code collisions exhausted", slog.Int("attempts", attempt))
			return domain.Invite{}, errCodeSpaceExhausted
		}
		log.Debug("invite code collision, regenerating", slog.Int("attempt", attempt))
	}

	log.Info("invite created",
		slog.String("invite_id", inv.ID),
		slog.String("code", inv.Code),
		slog.String("created_by", inv.CreatedBy),
		slog.Time("expires_at", inv.ExpiresAt),
	)
	return inv, nil
}

// Redeem consumes the invite identified by code on behalf of userID, who is
// registering as email. It must run in the same transaction that creates
// the user.
func (l *InviteLedger) Redeem(ctx context.Context, tx store.Tx, code, email, userID string) (domain.Invite, error) {
	log := slogx.FromContext(ctx)
	now := l.Now.now()

	// 1. Look the code up and classify why it cannot be used.
	inv, err := tx.Invites().GetInviteByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, ErrInvalidInvite
	}
	if err != nil {
		return domain.Invite{}, fmt.Errorf("get invite: %w", err)
	}
	if err := classifyInvite(inv, email, now); err != nil {
		log.Info("invite rejected",
			slog.String("invite_id", inv.ID),
			slog.String("reason", err.Error()),
		)
		return domain.Invite{}, err
	}

	// 2. Consume, guarded so exactly one concurrent redemption wins.
	if err := tx.Invites().ConsumeInvite(ctx, inv.ID, userID, now); err != nil {
		if !errors.Is(err, store.ErrConflict) && !errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invite{}, fmt.Errorf("consume invite: %w", err)
		}
		latest, rerr := tx.Invites().GetInviteByID(ctx, inv.ID)
		if errors.Is(rerr, store.ErrNotFound) {
			return domain.Invite{}, ErrInvalidInvite
		}
		if rerr != nil {
			return domain.Invite{}, fmt.Errorf("reload invite: %w", rerr)
		}
		if latest.IsExpired(now) && !latest.IsUsed() {
			return domain.Invite{}, ErrInviteExpired
		}
		return domain.Invite{}, ErrInviteUsed
	}

	inv.UsedBy = userID
	inv.UsedAt = &now
	return inv, nil
}

func classifyInvite(inv domain.Invite, email string, now time.Time) error {
	switch {
	case inv.IsUsed():
		return ErrInviteUsed
	case inv.IsExpired(now):
		return ErrInviteExpired
	case !inv.AllowsEmail(email):
		return ErrEmailMismatch
	}
	return nil
}

// Revoke deletes an unused invite.
func (l *InviteLedger) Revoke(ctx context.Context, inviteID string) error {
	err := l.revoke(ctx, inviteID)
	l.Metrics.AuthEvent("invite_revoke", err)
	return err
}

func (l *InviteLedger) revoke(ctx context.Context, inviteID string) error {
	err := l.Store.Invites().DeleteUnusedInvite(ctx, inviteID)
	if err == nil {
		slogx.FromContext(ctx).Info("invite revoked", slog.String("invite_id", inviteID))
		return nil
	}
	if !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("delete invite: %w", err)
	}

	// Nothing deleted: either the invite never existed or it was used.
	if _, err := l.Store.Invites().GetInviteByID(ctx, inviteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get invite: %w", err)
	}
	return ErrInviteUsed
}

// Get returns one invite by id.
func (l *InviteLedger) Get(ctx context.Context, inviteID string) (domain.Invite, error) {
	inv, err := l.Store.Invites().GetInviteByID(ctx, inviteID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, ErrNotFound
	}
	return inv, err
}

// List returns invites matching filter, newest first, with counts.
func (l *InviteLedger) List(ctx context.Context, filter domain.InviteFilter) (domain.InviteList, error) {
	now := l.Now.now()
	invites, err := l.Store.Invites().ListInvites(ctx, filter, now)
	if err != nil {
		return domain.InviteList{}, fmt.Errorf("list invites: %w", err)
	}
	return domain.NewInviteList(invites, now), nil
}

// PurgeExpired deletes unused invites that expired before cutoff.
func (l *InviteLedger) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return l.Store.Invites().DeleteExpiredInvites(ctx, before)
}
