package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite"
	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail   = "admin@example.com"
	testPassword = "Str0ng!pass"
)

var client = domain.ClientInfo{IP: "203.0.113.7", UserAgent: "go-test"}

// recordingNotifier captures notifications sent in the background.
type recordingNotifier struct {
	mu      sync.Mutex
	welcome []string
	invites []string
	sent    chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 16)}
}

func (n *recordingNotifier) SendWelcome(_ context.Context, email string) error {
	n.mu.Lock()
	n.welcome = append(n.welcome, email)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}

func (n *recordingNotifier) SendInvite(_ context.Context, email, code, _ string) error {
	n.mu.Lock()
	n.invites = append(n.invites, email+":"+code)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}
}

type harness struct {
	store    *sqlite.Store
	clock    *fakeClock
	hasher   *cryptox.MultiHasher
	codec    *service.TokenCodec
	invites  *service.InviteLedger
	sessions *service.SessionStore
	auth     *service.AuthService
	gate     *service.Gate
	notifier *recordingNotifier
	admin    domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessDSN(t, ":memory:")
}

// newFileHarness runs on a database file with a full connection pool, so
// concurrent transactions really do overlap.
func newFileHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessDSN(t, "file:"+filepath.Join(t.TempDir(), "auth.db"))
}

// storeBackends lists the harnesses concurrency tests run against.
var storeBackends = []struct {
	name string
	new  func(*testing.T) *harness
}{
	{"memory", newHarness},
	{"file", newFileHarness},
}

func newHarnessDSN(t *testing.T, dsn string) *harness {
	t.Helper()

	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hasher, err := cryptox.NewMultiHasher(cryptox.AlgBcrypt, bcrypt.MinCost, "")
	require.NoError(t, err)

	clock := newFakeClock()
	now := service.Clock(clock.Now)
	codec := newCodec(t, clock)
	notifier := newRecordingNotifier()

	h := &harness{
		store:    st,
		clock:    clock,
		hasher:   hasher,
		codec:    codec,
		notifier: notifier,
	}
	h.invites = &service.InviteLedger{Store: st, Notifier: notifier, Now: now}
	h.sessions = &service.SessionStore{Store: st, TTL: 7 * 24 * time.Hour, Now: now}
	h.auth = &service.AuthService{
		Store:     st,
		Hasher:    hasher,
		Codec:     codec,
		Invites:   h.invites,
		Sessions:  h.sessions,
		Notifier:  notifier,
		AccessTTL: 15 * time.Minute,
		Now:       now,
	}
	h.gate = &service.Gate{Store: st, Codec: codec, Now: now}
	h.admin = h.createUser(t, adminEmail, true)
	return h
}

func (h *harness) ctx() context.Context { return context.Background() }

func (h *harness) createUser(t *testing.T, email string, admin bool) domain.User {
	t.Helper()
	hash, err := h.hasher.Hash(testPassword)
	require.NoError(t, err)
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      admin,
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	require.NoError(t, h.store.Users().CreateUser(h.ctx(), u))
	return u
}

func (h *harness) invite(t *testing.T, p service.CreateInviteParams) domain.Invite {
	t.Helper()
	if p.CreatedBy == "" {
		p.CreatedBy = h.admin.ID
	}
	inv, err := h.invites.Create(h.ctx(), p)
	require.NoError(t, err)
	return inv
}

func (h *harness) register(t *testing.T, email string) (domain.User, domain.TokenPair) {
	t.Helper()
	inv := h.invite(t, service.CreateInviteParams{})
	pair, err := h.auth.Register(h.ctx(), service.RegisterParams{
		Email:      email,
		Password:   testPassword,
		InviteCode: inv.Code,
		Client:     client,
	})
	require.NoError(t, err)
	h.notifier.wait(t)

	u, err := h.store.Users().GetUserByEmail(h.ctx(), email)
	require.NoError(t, err)
	return u, pair
}
