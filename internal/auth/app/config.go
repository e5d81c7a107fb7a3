package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	httpapi "github.com/nikhilsi/trading-recommendations-app/internal/auth/http"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store/drivers/sqlite"
	"github.com/nikhilsi/trading-recommendations-app/pkg/cryptox"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
)

type Config struct {
	Addr        string // HTTP listen address (default: :8080)
	DatabaseDSN string // SQLite DSN (default: sqlite.DefaultDSN)
	Issuer      string // iss claim of every token (default: trading-auth)

	SigningAlg    string // HS256 or EdDSA (default: HS256)
	SecretKey     string // HS256 shared secret, at least 32 bytes
	EdDSAKeyFile  string // Optional: PKCS8 Ed25519 key; empty generates an ephemeral key
	TokenLeeway   time.Duration
	AccessTTL     time.Duration // (default: 15m)
	RefreshTTL    time.Duration // (default: 168h)
	PasswordAlg   string        // bcrypt or argon2id for new hashes (default: bcrypt)
	BcryptCost    int           // (default: 12)
	PepperFile    string        // Optional: argon2id pepper, created on first start
	InviteCodeLen int           // (default: 8)
	InviteTTLDays int           // default invite lifetime (default: 7)

	BootstrapToken       string // Optional: enables POST /auth/bootstrap
	BootstrapInviteCount int    // (default: 5)

	HousekeepingInterval time.Duration // 0 disables the sweep (default: 1h)
	SessionRetention     time.Duration // (default: 720h)

	SMTP SMTPConfig

	CORSOrigins    []string // (default: http://localhost:3000)
	RateLimits     httpapi.RateLimits
	MetricsEnabled bool // serve GET /metrics (default: true)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	LogAddSource        bool          // (default: false, always on in dev)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// SMTPConfig is the mail relay used for welcome and invite emails. An empty
// Host selects the log-only notifier.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	AppURL    string
}

func LoadConfig() Config {
	cfg := Config{
		Addr:        getEnvOrDefault("AUTH_ADDR", ":8080"),
		DatabaseDSN: getEnvOrDefault("AUTH_DB_DSN", sqlite.DefaultDSN),
		Issuer:      getEnvOrDefault("AUTH_ISSUER", "trading-auth"),

		SigningAlg:    getEnvOrDefault("AUTH_SIGNING_ALG", jwtx.AlgorithmHS256),
		SecretKey:     os.Getenv("SECRET_KEY"),
		EdDSAKeyFile:  os.Getenv("AUTH_EDDSA_KEY_FILE"),
		TokenLeeway:   getEnvDurationOrDefault("AUTH_TOKEN_LEEWAY", 0),
		AccessTTL:     getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:    getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		PasswordAlg:   getEnvOrDefault("PASSWORD_HASH_ALG", cryptox.AlgBcrypt),
		BcryptCost:    getEnvIntOrDefault("BCRYPT_COST", 12),
		PepperFile:    os.Getenv("PEPPER_FILE"),
		InviteCodeLen: getEnvIntOrDefault("INVITE_CODE_LENGTH", service.DefaultInviteCodeLength),
		InviteTTLDays: getEnvIntOrDefault("INVITE_DEFAULT_TTL_DAYS", service.DefaultInviteTTLDays),

		BootstrapToken:       os.Getenv("BOOTSTRAP_TOKEN"),
		BootstrapInviteCount: getEnvIntOrDefault("BOOTSTRAP_INVITE_COUNT", service.DefaultBootstrapInvites),

		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
		SessionRetention:     getEnvDurationOrDefault("SESSION_RETENTION", service.DefaultSessionRetention),

		SMTP: SMTPConfig{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      getEnvIntOrDefault("SMTP_PORT", 587),
			Username:  os.Getenv("SMTP_USER"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: os.Getenv("FROM_EMAIL"),
			FromName:  getEnvOrDefault("FROM_NAME", "Trading Intelligence"),
			AppURL:    getEnvOrDefault("APP_URL", "http://localhost:3000"),
		},

		CORSOrigins:    httpx.SplitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		MetricsEnabled: getEnvBoolOrDefault("METRICS_ENABLED", true),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		LogAddSource:        getEnvBoolOrDefault("LOG_ADD_SOURCE", false),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	defaults := httpapi.DefaultRateLimits()
	cfg.RateLimits = httpapi.RateLimits{
		Credentials: httpx.ParseRateLimitFromEnv("CREDENTIALS", defaults.Credentials),
		Account:     httpx.ParseRateLimitFromEnv("ACCOUNT", defaults.Account),
		Admin:       httpx.ParseRateLimitFromEnv("ADMIN", defaults.Admin),
		Public:      httpx.ParseRateLimitFromEnv("PUBLIC", defaults.Public),
	}

	return cfg
}

// Validate reports every problem at once so a misconfigured deployment
// fails on its first start.
func (c Config) Validate() error {
	var errs []error

	switch c.SigningAlg {
	case jwtx.AlgorithmHS256:
		if len(c.SecretKey) < jwtx.MinHS256SecretLen {
			errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d bytes for HS256", jwtx.MinHS256SecretLen))
		}
	case jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("AUTH_SIGNING_ALG %q is not supported (HS256, EdDSA)", c.SigningAlg))
	}

	switch c.PasswordAlg {
	case cryptox.AlgBcrypt, cryptox.AlgArgon2id:
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASH_ALG %q is not supported (bcrypt, argon2id)", c.PasswordAlg))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}

	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTTL <= c.AccessTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_LEEWAY must not be negative"))
	}

	if c.InviteCodeLen < service.MinInviteCodeLength || c.InviteCodeLen > service.MaxInviteCodeLength {
		errs = append(errs, fmt.Errorf("INVITE_CODE_LENGTH must be between %d and %d",
			service.MinInviteCodeLength, service.MaxInviteCodeLength))
	}
	if err := service.ValidateInviteTTLDays(c.InviteTTLDays); err != nil {
		errs = append(errs, fmt.Errorf("INVITE_DEFAULT_TTL_DAYS: %w", err))
	}
	if c.BootstrapInviteCount < 0 || c.BootstrapInviteCount > 100 {
		errs = append(errs, errors.New("BOOTSTRAP_INVITE_COUNT must be between 0 and 100"))
	}

	if c.HousekeepingInterval < 0 {
		errs = append(errs, errors.New("HOUSEKEEPING_INTERVAL must not be negative"))
	}
	if c.SessionRetention <= 0 {
		errs = append(errs, errors.New("SESSION_RETENTION must be positive"))
	}

	if c.SMTP.Host != "" && (c.SMTP.Port <= 0 || c.SMTP.Port > 65535) {
		errs = append(errs, errors.New("SMTP_PORT must be a valid port"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
