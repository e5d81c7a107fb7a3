package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$2a$04$placeholder",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func createInvite(t *testing.T, s store.Store, code string, createdAt, expiresAt time.Time) domain.Invite {
	t.Helper()
	inv := domain.Invite{
		ID:        idx.NewAt(createdAt).String(),
		Code:      code,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, s.Invites().CreateInvite(context.Background(), inv))
	return inv
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := createUser(t, s, "Trader@Example.com")

	t.Run("email stored lowercase and matched case-insensitively", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "TRADER@example.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, "trader@example.com", got.Email)
		require.True(t, got.IsActive)
		require.Nil(t, got.LastLogin)
	})

	t.Run("duplicate email in any case", func(t *testing.T) {
		dup := domain.User{ID: idx.New().String(), Email: "TRADER@EXAMPLE.COM", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("updates", func(t *testing.T) {
		later := now.Add(time.Hour)
		require.NoError(t, s.Users().UpdateLastLogin(ctx, u.ID, later))
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$2a$04$other", later))
		require.NoError(t, s.Users().SetActive(ctx, u.ID, false, later))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLogin)
		require.True(t, later.Equal(*got.LastLogin))
		require.Equal(t, "$2a$04$other", got.PasswordHash)
		require.False(t, got.IsActive)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Users().UpdateLastLogin(ctx, "nope", now), store.ErrNotFound)
	})
}

func TestInvites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := createUser(t, s, "a@x.com")

	inv := createInvite(t, s, "abcdEFGH", now, now.Add(24*time.Hour))

	t.Run("duplicate code", func(t *testing.T) {
		dup := inv
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Invites().CreateInvite(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("consume once", func(t *testing.T) {
		require.NoError(t, s.Invites().ConsumeInvite(ctx, inv.ID, u.ID, now.Add(time.Minute)))
		require.ErrorIs(t, s.Invites().ConsumeInvite(ctx, inv.ID, u.ID, now.Add(time.Minute)), store.ErrConflict)

		got, err := s.Invites().GetInviteByCode(ctx, "abcdEFGH")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.UsedBy)
		require.NotNil(t, got.UsedAt)
	})

	t.Run("expired invite cannot be consumed", func(t *testing.T) {
		old := createInvite(t, s, "expired1", now, now.Add(time.Hour))
		other := createUser(t, s, "b@x.com")
		err := s.Invites().ConsumeInvite(ctx, old.ID, other.ID, now.Add(2*time.Hour))
		require.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("delete only while unused", func(t *testing.T) {
		require.ErrorIs(t, s.Invites().DeleteUnusedInvite(ctx, inv.ID), store.ErrConflict)

		fresh := createInvite(t, s, "deleteme", now, now.Add(time.Hour))
		require.NoError(t, s.Invites().DeleteUnusedInvite(ctx, fresh.ID))
		_, err := s.Invites().GetInviteByID(ctx, fresh.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListInvites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := createUser(t, s, "a@x.com")

	active := createInvite(t, s, "active01", now.Add(-3*time.Minute), now.Add(time.Hour))
	expired := createInvite(t, s, "expired1", now.Add(-2*time.Minute), now.Add(-time.Second))
	used := createInvite(t, s, "usedcode", now.Add(-time.Minute), now.Add(time.Hour))
	require.NoError(t, s.Invites().ConsumeInvite(ctx, used.ID, u.ID, now.Add(-30*time.Second)))

	ids := func(invites []domain.Invite) []string {
		var out []string
		for _, inv := range invites {
			out = append(out, inv.ID)
		}
		return out
	}

	got, err := s.Invites().ListInvites(ctx, domain.InviteFilter{}, now)
	require.NoError(t, err)
	require.Equal(t, []string{active.ID}, ids(got))

	got, err = s.Invites().ListInvites(ctx, domain.InviteFilter{IncludeExpired: true}, now)
	require.NoError(t, err)
	require.Equal(t, []string{expired.ID, active.ID}, ids(got))

	got, err = s.Invites().ListInvites(ctx, domain.InviteFilter{IncludeUsed: true, IncludeExpired: true}, now)
	require.NoError(t, err)
	require.Equal(t, []string{used.ID, expired.ID, active.ID}, ids(got), "newest first")

	n, err := s.Invites().DeleteExpiredInvites(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "only the unused expired invite goes")
}

// At the exact expiry instant an invite is still redeemable, so it is
// still listed as active.
func TestListInvites_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := createUser(t, s, "a@x.com")

	edge := createInvite(t, s, "edgecode", now.Add(-time.Hour), now)

	got, err := s.Invites().ListInvites(ctx, domain.InviteFilter{}, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, edge.ID, got[0].ID)
	require.False(t, got[0].IsExpired(now))

	require.NoError(t, s.Invites().ConsumeInvite(ctx, edge.ID, u.ID, now))
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := createUser(t, s, "a@x.com")

	newSession := func(hash string, expires time.Time) domain.Session {
		sess := domain.Session{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: hash,
			ExpiresAt: expires,
			CreatedAt: now,
			IPAddress: "203.0.113.7",
			UserAgent: "test-agent",
		}
		require.NoError(t, s.Sessions().CreateSession(ctx, sess))
		return sess
	}

	a := newSession("hash-a", now.Add(time.Hour))
	b := newSession("hash-b", now.Add(time.Hour))
	newSession("hash-old", now.Add(-time.Hour))

	t.Run("duplicate fingerprint", func(t *testing.T) {
		dup := a
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Sessions().CreateSession(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("lookup by exact fingerprint", func(t *testing.T) {
		got, err := s.Sessions().GetSessionByTokenHash(ctx, "hash-a")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)
		require.Equal(t, "203.0.113.7", got.IPAddress)
		require.Equal(t, "test-agent", got.UserAgent)
		require.True(t, got.IsValid(now))

		_, err = s.Sessions().GetSessionByTokenHash(ctx, "hash")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("revoke once", func(t *testing.T) {
		require.NoError(t, s.Sessions().RevokeSession(ctx, a.ID, now))
		require.ErrorIs(t, s.Sessions().RevokeSession(ctx, a.ID, now), store.ErrConflict)
	})

	t.Run("active listing and revoke all", func(t *testing.T) {
		active, err := s.Sessions().ListActiveSessions(ctx, u.ID, now)
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Equal(t, b.ID, active[0].ID)

		n, err := s.Sessions().RevokeUserSessions(ctx, u.ID, now)
		require.NoError(t, err)
		require.EqualValues(t, 2, n, "the expired but unrevoked session is revoked too")

		n, err = s.Sessions().RevokeUserSessions(ctx, u.ID, now)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("prune", func(t *testing.T) {
		n, err := s.Sessions().DeleteStaleSessions(ctx, now.Add(time.Second))
		require.NoError(t, err)
		require.EqualValues(t, 3, n)
	})
}

func TestTiers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := createUser(t, s, "a@x.com")

	_, err := s.Tiers().GetTierByUserID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	tier := domain.Tier{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Name:      domain.TierFree,
		ValidFrom: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Tiers().UpsertTier(ctx, tier))

	got, err := s.Tiers().GetTierByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TierFree, got.Name)
	require.Empty(t, got.Features)
	require.Nil(t, got.ValidUntil)

	until := now.Add(30 * 24 * time.Hour)
	tier.ID = idx.New().String()
	tier.Name = domain.TierEnterprise
	tier.Features = domain.EnterpriseFeatures()
	tier.ValidUntil = &until
	require.NoError(t, s.Tiers().UpsertTier(ctx, tier))

	got, err = s.Tiers().GetTierByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TierEnterprise, got.Name)
	require.Equal(t, domain.EnterpriseFeatures(), got.Features)
	require.True(t, until.Equal(*got.ValidUntil))
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Email: "gone@x.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
		}))
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Users().GetUserByEmail(ctx, "gone@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
