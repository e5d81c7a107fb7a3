package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinPasswordLength   = 8
	MaxPasswordLength   = 72 // bcrypt ignores everything past 72 bytes
	MinInviteCodeLength = 8
	MaxInviteCodeLength = 32
	MinInviteTTLDays    = 1
	MaxInviteTTLDays    = 30
	MaxInviteNotesLen   = 500

	passwordSpecials = "@$!%*#?&"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return errors.New("Invalid email format")
	}
	return nil
}

// ValidatePassword enforces length plus at least one letter, one digit and
// one of @$!%*#?&.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("Password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("Password must be at most %d bytes long", MaxPasswordLength)
	}

	var letter, digit, special bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !letter:
		return errors.New("Password must contain at least one letter")
	case !digit:
		return errors.New("Password must contain at least one number")
	case !special:
		return errors.New("Password must contain at least one special character (@$!%*#?&)")
	}
	return nil
}

func ValidateInviteCode(code string) error {
	if n := len(code); n < MinInviteCodeLength || n > MaxInviteCodeLength {
		return fmt.Errorf("Invite code must be %d to %d characters", MinInviteCodeLength, MaxInviteCodeLength)
	}
	return nil
}

func ValidateInviteTTLDays(days int) error {
	if days < MinInviteTTLDays || days > MaxInviteTTLDays {
		return fmt.Errorf("expires_in_days must be between %d and %d", MinInviteTTLDays, MaxInviteTTLDays)
	}
	return nil
}
