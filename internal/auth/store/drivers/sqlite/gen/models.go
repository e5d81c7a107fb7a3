package gen

import (
	"database/sql"
	"time"
)

type Invite struct {
	ID        string
	Code      string
	Email     sql.NullString
	CreatedBy sql.NullString
	UsedBy    sql.NullString
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	Notes     sql.NullString
}

type User struct {
	ID              string
	Email           string
	PasswordHash    string
	IsActive        bool
	IsAdmin         bool
	EmailVerified   bool
	EmailVerifiedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLogin       sql.NullTime
}

type UserSession struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	RevokedAt    sql.NullTime
	IpAddress    sql.NullString
	UserAgent    sql.NullString
}

type UserTier struct {
	ID         string
	UserID     string
	Tier       string
	Features   string
	ValidFrom  time.Time
	ValidUntil sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
