package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)

	cfg := LoadConfig()
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, sqlite.DefaultDSN, cfg.DatabaseDSN)
	require.Equal(t, jwtx.AlgorithmHS256, cfg.SigningAlg)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 8, cfg.InviteCodeLen)
	require.Equal(t, 7, cfg.InviteTTLDays)
	require.Equal(t, 5, cfg.BootstrapInviteCount)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	require.Equal(t, httpx.StrictLimit, cfg.RateLimits.Credentials)
	require.True(t, cfg.MetricsEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AUTH_SIGNING_ALG", "EdDSA")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("REFRESH_TOKEN_TTL", "1440") // minutes
	t.Setenv("HOUSEKEEPING_INTERVAL", "0")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("RATELIMIT_CREDENTIALS_REQUESTS", "2")
	t.Setenv("RATELIMIT_CREDENTIALS_WINDOW_SEC", "10")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg := LoadConfig()
	require.Equal(t, jwtx.AlgorithmEdDSA, cfg.SigningAlg)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL)
	require.Equal(t, 24*time.Hour, cfg.RefreshTTL)
	require.Zero(t, cfg.HousekeepingInterval)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	require.Equal(t, 2, cfg.RateLimits.Credentials.RequestsPerWindow)
	require.Equal(t, 10*time.Second, cfg.RateLimits.Credentials.Window)
	require.False(t, cfg.MetricsEnabled)
	require.Equal(t, 12, cfg.BcryptCost)

	// EdDSA needs no shared secret.
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	base := LoadConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.SecretKey = "short" }, "SECRET_KEY"},
		{"bad algorithm", func(c *Config) { c.SigningAlg = "RS256" }, "AUTH_SIGNING_ALG"},
		{"bad hash", func(c *Config) { c.PasswordAlg = "md5" }, "PASSWORD_HASH_ALG"},
		{"refresh shorter than access", func(c *Config) { c.RefreshTTL = time.Minute }, "REFRESH_TOKEN_TTL"},
		{"invite code length", func(c *Config) { c.InviteCodeLen = 4 }, "INVITE_CODE_LENGTH"},
		{"invite ttl", func(c *Config) { c.InviteTTLDays = 31 }, "INVITE_DEFAULT_TTL_DAYS"},
		{"bootstrap count", func(c *Config) { c.BootstrapInviteCount = 101 }, "BOOTSTRAP_INVITE_COUNT"},
		{"retention", func(c *Config) { c.SessionRetention = 0 }, "SESSION_RETENTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_WiresRouter(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("AUTH_DB_DSN", ":memory:")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("HOUSEKEEPING_INTERVAL", "0")
	t.Setenv("LOG_LEVEL", "error")

	application, err := New(LoadConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Bootstrap is off without a token.
	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/bootstrap", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("LOG_LEVEL", "error")

	_, err := New(LoadConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "SECRET_KEY")
}
