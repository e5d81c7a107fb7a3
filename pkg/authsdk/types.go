package authsdk

import (
	"time"

	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
)

// ============================================================================
// Error Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the body of every non-2xx response from the service.
type ErrorResponse struct {
	// Error is the human-readable message (e.g., "Invalid email or password")
	Error string `json:"error"`

	// StatusCode repeats the HTTP status code
	StatusCode int `json:"status_code"`

	// Timestamp is when the error was produced (RFC3339, UTC)
	Timestamp string `json:"timestamp"`

	// Message carries extra context for internal errors
	Message string `json:"message,omitempty"`

	// Details maps field names to validation failures (422 only)
	Details map[string]string `json:"details,omitempty"`
}

// MessageResponse is returned by operations with nothing else to report.
type MessageResponse struct {
	Message string `json:"message" example:"Successfully logged out"`
}

// ============================================================================
// Token Types
// ============================================================================

// RegisterRequest creates an account using an invite code.
type RegisterRequest struct {
	Email      string `json:"email" example:"trader@example.com"`
	Password   string `json:"password" example:"s3cret!pass"`
	InviteCode string `json:"invite_code" example:"K7PQ2M9X"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" example:"trader@example.com"`
	Password string `json:"password" example:"s3cret!pass"`
}

// RefreshRequest exchanges a refresh token for a new token pair. The
// presented refresh token is consumed.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque single-use refresh token
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type" example:"bearer"`

	// ExpiresIn is the lifetime of the access token in seconds
	ExpiresIn int `json:"expires_in" example:"1800"`
}

// ChangePasswordRequest replaces the caller's password. Every session of
// the account is revoked on success.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is the caller's profile returned from GET /auth/me.
type UserResponse struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	IsActive      bool           `json:"is_active"`
	IsAdmin       bool           `json:"is_admin"`
	EmailVerified bool           `json:"email_verified"`
	CreatedAt     time.Time      `json:"created_at"`
	LastLogin     *time.Time     `json:"last_login"`
	Tier          string         `json:"tier" example:"free"`
	Features      map[string]any `json:"features"`
}

// ============================================================================
// Invite Types
// ============================================================================

// InviteRequest mints a new invite code (admin only).
type InviteRequest struct {
	// Email pins the invite to one address. Empty means anyone may redeem it.
	Email string `json:"email,omitempty"`

	// Notes is free text for the admin listing (max 500 chars)
	Notes string `json:"notes,omitempty"`

	// ExpiresInDays is the validity in days, 1-30 (default 7)
	ExpiresInDays *int `json:"expires_in_days,omitempty" example:"7"`
}

// InviteResponse describes one invite.
type InviteResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code" example:"K7PQ2M9X"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsUsed    bool      `json:"is_used"`
	IsExpired bool      `json:"is_expired"`
	Notes     *string   `json:"notes"`
}

// InviteListResponse is the admin invite listing. Counts cover the
// returned invites only.
type InviteListResponse struct {
	Invites []InviteResponse `json:"invites"`
	Total   int              `json:"total"`
	Active  int              `json:"active"`
	Used    int              `json:"used"`
	Expired int              `json:"expired"`
}

// ListInvitesOptions selects which invites GET /auth/invites returns. The
// zero value lists only active invites.
type ListInvitesOptions struct {
	IncludeUsed    bool
	IncludeExpired bool
}

// ============================================================================
// Bootstrap Types
// ============================================================================

// BootstrapRequest creates the first administrator and a batch of invites.
// It only succeeds against an empty user table.
type BootstrapRequest struct {
	// AdminEmail is the administrator's login email
	AdminEmail string `json:"admin_email"`

	// AdminPassword must satisfy the password policy
	AdminPassword string `json:"admin_password"`

	// InviteCount is the number of 30-day invites to mint, 0-100 (0 means 5)
	InviteCount int `json:"invite_count,omitempty"`
}

// BootstrapResponse contains the administrator ID and the minted codes.
type BootstrapResponse struct {
	AdminUserID string   `json:"admin_user_id"`
	InviteCodes []string `json:"invite_codes"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	// Status is "ok" or "unavailable"
	Status string `json:"status"`

	// Uptime is the service uptime (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks holds per-dependency readiness (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse is the public key set served at
// /auth/.well-known/jwks.json when tokens are signed with EdDSA.
type JWKSResponse jwtx.JWKS
