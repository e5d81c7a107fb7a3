package domain

import (
	"strings"
	"time"
)

type User struct {
	ID              string
	Email           string // lowercase
	PasswordHash    string // bcrypt or PHC argon2id
	IsActive        bool
	IsAdmin         bool
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLogin       *time.Time
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u User) PrincipalID() string       { return u.ID }
func (u User) PrincipalIsAdmin() bool    { return u.IsAdmin }
func (u User) PrincipalIsVerified() bool { return u.EmailVerified }
