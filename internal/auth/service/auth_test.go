package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	h := newHarness(t)
	inv := h.invite(t, service.CreateInviteParams{})

	pair, err := h.auth.Register(h.ctx(), service.RegisterParams{
		Email:      "  New.User@Example.com ",
		Password:   testPassword,
		InviteCode: inv.Code,
		Client:     client,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Len(t, pair.RefreshToken, 43)
	require.Equal(t, 15*time.Minute, pair.ExpiresIn)

	h.notifier.wait(t)
	require.Equal(t, []string{"new.user@example.com"}, h.notifier.welcome)

	user, err := h.store.Users().GetUserByEmail(h.ctx(), "new.user@example.com")
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.False(t, user.IsAdmin)

	info, err := h.codec.Decode(pair.AccessToken, service.KindAccess)
	require.NoError(t, err)
	require.Equal(t, user.ID, info.SubjectID)

	consumed, err := h.store.Invites().GetInviteByID(h.ctx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, consumed.UsedBy)
	require.NotNil(t, consumed.UsedAt)

	tier, err := h.store.Tiers().GetTierByUserID(h.ctx(), user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TierFree, tier.Name)

	sessions, err := h.sessions.ListActive(h.ctx(), user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, client.IP, sessions[0].IPAddress)
	require.Equal(t, client.UserAgent, sessions[0].UserAgent)
	require.NotEqual(t, pair.RefreshToken, sessions[0].TokenHash)
}

func TestRegister_InviteSingleUse(t *testing.T) {
	h := newHarness(t)
	inv := h.invite(t, service.CreateInviteParams{})

	_, err := h.auth.Register(h.ctx(), service.RegisterParams{Email: "a@x.com", Password: testPassword, InviteCode: inv.Code})
	require.NoError(t, err)

	_, err = h.auth.Register(h.ctx(), service.RegisterParams{Email: "b@x.com", Password: testPassword, InviteCode: inv.Code})
	require.ErrorIs(t, err, service.ErrInviteUsed)

	_, err = h.store.Users().GetUserByEmail(h.ctx(), "b@x.com")
	require.Error(t, err, "failed registration must not leave a user behind")
}

func TestRegister_EmailTakenCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com")

	inv := h.invite(t, service.CreateInviteParams{})
	_, err := h.auth.Register(h.ctx(), service.RegisterParams{Email: "A@X.COM", Password: testPassword, InviteCode: inv.Code})
	require.ErrorIs(t, err, service.ErrEmailTaken)

	unused, err := h.store.Invites().GetInviteByID(h.ctx(), inv.ID)
	require.NoError(t, err)
	require.False(t, unused.IsUsed(), "invite must survive a rejected registration")
}

func TestRegister_InviteFailures(t *testing.T) {
	h := newHarness(t)

	t.Run("unknown code", func(t *testing.T) {
		_, err := h.auth.Register(h.ctx(), service.RegisterParams{Email: "u1@x.com", Password: testPassword, InviteCode: "nosuchcode"})
		require.ErrorIs(t, err, service.ErrInvalidInvite)
	})

	t.Run("email pinned to someone else", func(t *testing.T) {
		inv := h.invite(t, service.CreateInviteParams{Email: "pinned@x.com"})
		h.notifier.wait(t)

		_, err := h.auth.Register(h.ctx(), service.RegisterParams{Email: "other@x.com", Password: testPassword, InviteCode: inv.Code})
		require.ErrorIs(t, err, service.ErrEmailMismatch)

		_, err = h.auth.Register(h.ctx(), service.RegisterParams{Email: "PINNED@x.com", Password: testPassword, InviteCode: inv.Code})
		require.NoError(t, err)
		h.notifier.wait(t)
	})

	t.Run("expired", func(t *testing.T) {
		inv := h.invite(t, service.CreateInviteParams{TTLDays: 1})
		h.clock.Advance(24*time.Hour + time.Second)

		_, err := h.auth.Register(h.ctx(), service.RegisterParams{Email: "late@x.com", Password: testPassword, InviteCode: inv.Code})
		require.ErrorIs(t, err, service.ErrInviteExpired)
	})
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.auth.Register(h.ctx(), service.RegisterParams{Email: "not-an-email", Password: "short", InviteCode: "abc"})
	require.ErrorIs(t, err, service.ErrValidation)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "password")
	require.Contains(t, verr.Fields, "invite_code")
}

func TestRegister_ConcurrentSameInvite(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend.name, func(t *testing.T) {
			h := backend.new(t)
			inv := h.invite(t, service.CreateInviteParams{})

			const n = 8
			var (
				wg   sync.WaitGroup
				errs = make([]error, n)
			)
			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, errs[i] = h.auth.Register(h.ctx(), service.RegisterParams{
						Email:      "racer" + string(rune('a'+i)) + "@x.com",
						Password:   testPassword,
						InviteCode: inv.Code,
					})
				}()
			}
			wg.Wait()

			var ok int
			for _, err := range errs {
				if err == nil {
					ok++
					continue
				}
				require.ErrorIs(t, err, service.ErrInviteUsed)
			}
			require.Equal(t, 1, ok)
		})
	}
}

func TestLogin_WrongThenRight(t *testing.T) {
	h := newHarness(t)
	user := h.createUser(t, "trader@x.com", false)

	_, err := h.auth.Login(h.ctx(), "trader@x.com", "Wr0ng!pass", client)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	sessions, err := h.sessions.ListActive(h.ctx(), user.ID)
	require.NoError(t, err)
	require.Empty(t, sessions, "a failed login creates no session")

	pair, err := h.auth.Login(h.ctx(), "TRADER@x.com", testPassword, client)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	sessions, err = h.sessions.ListActive(h.ctx(), user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	reloaded, err := h.store.Users().GetUserByID(h.ctx(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLogin)
	require.Equal(t, h.clock.Now(), reloaded.LastLogin.UTC())
}

func TestLogin_UnknownEmailMatchesWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.createUser(t, "trader@x.com", false)

	_, unknown := h.auth.Login(h.ctx(), "ghost@x.com", testPassword, client)
	_, wrong := h.auth.Login(h.ctx(), "trader@x.com", "Wr0ng!pass", client)
	require.ErrorIs(t, unknown, service.ErrInvalidCredentials)
	require.Equal(t, wrong, unknown)
}

func TestLogin_Inactive(t *testing.T) {
	h := newHarness(t)
	user := h.createUser(t, "gone@x.com", false)
	require.NoError(t, h.store.Users().SetActive(h.ctx(), user.ID, false, h.clock.Now()))

	_, err := h.auth.Login(h.ctx(), "gone@x.com", testPassword, client)
	require.ErrorIs(t, err, service.ErrAccountInactive)

	_, err = h.auth.Login(h.ctx(), "gone@x.com", "Wr0ng!pass", client)
	require.ErrorIs(t, err, service.ErrInvalidCredentials, "inactivity is only revealed to the password holder")
}

func TestLogin_UpgradesForeignHash(t *testing.T) {
	h := newHarness(t)
	user := h.createUser(t, "legacy@x.com", false)

	argon, err := cryptox.Argon2Hasher{}.Hash(testPassword)
	require.NoError(t, err)
	require.NoError(t, h.store.Users().UpdatePasswordHash(h.ctx(), user.ID, argon, h.clock.Now()))

	_, err = h.auth.Login(h.ctx(), "legacy@x.com", testPassword, client)
	require.NoError(t, err)

	reloaded, err := h.store.Users().GetUserByID(h.ctx(), user.ID)
	require.NoError(t, err)
	require.False(t, h.hasher.NeedsRehash(reloaded.PasswordHash))
	require.True(t, h.hasher.Verify(testPassword, reloaded.PasswordHash))
}

func TestRefresh_OneTimeUse(t *testing.T) {
	h := newHarness(t)
	_, pair := h.register(t, "a@x.com")

	next, err := h.auth.Refresh(h.ctx(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.NotEmpty(t, next.AccessToken)

	_, err = h.auth.Refresh(h.ctx(), pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidSession, "replay before the new token is used")

	_, err = h.auth.Refresh(h.ctx(), next.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_Concurrent(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend.name, func(t *testing.T) {
			h := backend.new(t)
			_, pair := h.register(t, "a@x.com")

			const n = 8
			var (
				wg   sync.WaitGroup
				errs = make([]error, n)
			)
			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, errs[i] = h.auth.Refresh(h.ctx(), pair.RefreshToken)
				}()
			}
			wg.Wait()

			var ok int
			for _, err := range errs {
				if err == nil {
					ok++
					continue
				}
				require.ErrorIs(t, err, service.ErrInvalidSession)
			}
			require.Equal(t, 1, ok)
		})
	}
}

func TestRefresh_Expired(t *testing.T) {
	h := newHarness(t)
	_, pair := h.register(t, "a@x.com")

	h.clock.Advance(7*24*time.Hour + time.Second)
	_, err := h.auth.Refresh(h.ctx(), pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidSession)

	_, err = h.auth.Refresh(h.ctx(), "")
	require.ErrorIs(t, err, service.ErrInvalidSession)
	_, err = h.auth.Refresh(h.ctx(), "never-issued")
	require.ErrorIs(t, err, service.ErrInvalidSession)
}

func TestRefresh_InactiveUserKeepsToken(t *testing.T) {
	h := newHarness(t)
	user, pair := h.register(t, "a@x.com")
	require.NoError(t, h.store.Users().SetActive(h.ctx(), user.ID, false, h.clock.Now()))

	_, err := h.auth.Refresh(h.ctx(), pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrAccountInactive)

	sessions, err := h.sessions.ListActive(h.ctx(), user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1, "a refused refresh must not rotate")

	require.NoError(t, h.store.Users().SetActive(h.ctx(), user.ID, true, h.clock.Now()))
	_, err = h.auth.Refresh(h.ctx(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestLogout_RevokesEverySession(t *testing.T) {
	h := newHarness(t)
	user, first := h.register(t, "a@x.com")

	second, err := h.auth.Login(h.ctx(), "a@x.com", testPassword, client)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(h.ctx(), user.ID))
	require.NoError(t, h.auth.Logout(h.ctx(), user.ID), "logout is idempotent")

	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		_, err := h.auth.Refresh(h.ctx(), tok)
		require.ErrorIs(t, err, service.ErrInvalidSession)
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	user, pair := h.register(t, "a@x.com")
	const newPassword = "N3w!password"

	err := h.auth.ChangePassword(h.ctx(), user.ID, "Wr0ng!pass", newPassword)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	err = h.auth.ChangePassword(h.ctx(), user.ID, testPassword, "weak")
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = h.auth.Refresh(h.ctx(), pair.RefreshToken)
	require.NoError(t, err, "failed changes leave sessions alone")

	other, err := h.auth.Login(h.ctx(), "a@x.com", testPassword, client)
	require.NoError(t, err)

	require.NoError(t, h.auth.ChangePassword(h.ctx(), user.ID, testPassword, newPassword))

	_, err = h.auth.Refresh(h.ctx(), other.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidSession, "the calling device is signed out too")

	_, err = h.auth.Login(h.ctx(), "a@x.com", testPassword, client)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = h.auth.Login(h.ctx(), "a@x.com", newPassword, client)
	require.NoError(t, err)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	user, _ := h.register(t, "a@x.com")

	profile, err := h.auth.Me(h.ctx(), user)
	require.NoError(t, err)
	require.Equal(t, domain.TierFree, profile.Tier)
	require.Equal(t, domain.DefaultFeatures(), profile.Features)

	until := h.clock.Now().Add(time.Hour)
	require.NoError(t, h.store.Tiers().UpsertTier(h.ctx(), domain.Tier{
		ID:         "tier-paid",
		UserID:     user.ID,
		Name:       domain.TierPaid,
		Features:   domain.Features{"scans_per_day": 200, "backtesting": true},
		ValidFrom:  h.clock.Now(),
		ValidUntil: &until,
		CreatedAt:  h.clock.Now(),
		UpdatedAt:  h.clock.Now(),
	}))

	profile, err = h.auth.Me(h.ctx(), user)
	require.NoError(t, err)
	require.Equal(t, domain.TierPaid, profile.Tier)
	require.Equal(t, 200, profile.Features["scans_per_day"])
	require.Equal(t, true, profile.Features["backtesting"])
	require.Equal(t, 20, profile.Features["watchlist_size"])

	h.clock.Advance(2 * time.Hour)
	profile, err = h.auth.Me(h.ctx(), user)
	require.NoError(t, err)
	require.Equal(t, domain.TierFree, profile.Tier, "a lapsed tier falls back to the defaults")
	require.Equal(t, 50, profile.Features["scans_per_day"])
}

type panickingNotifier struct{}

func (panickingNotifier) SendWelcome(context.Context, string) error {
	panic("welcome template failed")
}

func (panickingNotifier) SendInvite(context.Context, string, string, string) error {
	panic("invite template failed")
}

func TestRegister_NotifierPanicDoesNotFailRegistration(t *testing.T) {
	h := newHarness(t)
	outbox := &service.Outbox{}
	h.auth.Notifier = panickingNotifier{}
	h.auth.Outbox = outbox

	inv := h.invite(t, service.CreateInviteParams{})
	_, err := h.auth.Register(h.ctx(), service.RegisterParams{
		Email:      "calm@x.com",
		Password:   testPassword,
		InviteCode: inv.Code,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(h.ctx(), 2*time.Second)
	defer cancel()
	require.NoError(t, outbox.Wait(ctx))

	_, err = h.store.Users().GetUserByEmail(h.ctx(), "calm@x.com")
	require.NoError(t, err)
}
