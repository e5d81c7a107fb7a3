package store

import (
	"context"
	"errors"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict means a guarded update matched no row because the row
	// changed state underneath the caller.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories. A Tx exposes the same repositories bound to one
// transaction, so multi-step operations never mix transactional and
// non-transactional access.
type Store interface {
	Users() Users
	Invites() Invites
	Sessions() Sessions
	Tiers() Tiers

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST call Commit() or
	// Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetActive is the admin deactivation switch.
	SetActive(ctx context.Context, userID string, active bool, at time.Time) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Invites interface {
	// CreateInvite returns ErrAlreadyExists when the code collides.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)
	GetInviteByCode(ctx context.Context, code string) (domain.Invite, error)

	// ConsumeInvite marks the invite used by userID if it is still unused
	// and unexpired at the given time. Otherwise it returns ErrConflict.
	ConsumeInvite(ctx context.Context, inviteID, userID string, at time.Time) error

	// DeleteUnusedInvite returns ErrConflict if no unused invite with that
	// id exists.
	DeleteUnusedInvite(ctx context.Context, inviteID string) error

	// ListInvites orders by created_at DESC, id DESC.
	ListInvites(ctx context.Context, filter domain.InviteFilter, now time.Time) ([]domain.Invite, error)

	// DeleteExpiredInvites removes unused invites that expired before the
	// cutoff and returns how many went.
	DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash is an exact match on the unique fingerprint.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// RevokeSession returns ErrConflict if the session was already revoked.
	RevokeSession(ctx context.Context, sessionID string, at time.Time) error

	// RevokeUserSessions revokes every unrevoked session of a user.
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int64, error)

	// ListActiveSessions returns unrevoked, unexpired sessions, newest first.
	ListActiveSessions(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)

	// DeleteStaleSessions removes sessions that expired or were revoked
	// before the cutoff.
	DeleteStaleSessions(ctx context.Context, before time.Time) (int64, error)
}

type Tiers interface {
	GetTierByUserID(ctx context.Context, userID string) (domain.Tier, error)

	// UpsertTier replaces the user's tier. A user has at most one.
	UpsertTier(ctx context.Context, t domain.Tier) error
}
