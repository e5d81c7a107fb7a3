package domain

import "time"

// Session is one logical login on one device. TokenHash is the fingerprint
// of the opaque refresh token; the raw token is never stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
	IPAddress string
	UserAgent string
}

func (s Session) IsExpired(now time.Time) bool { return now.After(s.ExpiresAt) }

func (s Session) IsRevoked() bool { return s.RevokedAt != nil }

func (s Session) IsValid(now time.Time) bool { return !s.IsExpired(now) && !s.IsRevoked() }

// ClientInfo is the request metadata recorded on a session.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// TokenPair is what register, login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}
