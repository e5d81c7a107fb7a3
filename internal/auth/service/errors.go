package service

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrEmailTaken         = errors.New("email already registered")

	ErrInvalidInvite = errors.New("invalid invite code")
	ErrInviteUsed    = errors.New("invite code already used")
	ErrInviteExpired = errors.New("invite code expired")
	ErrEmailMismatch = errors.New("invite is for a different email address")

	ErrInvalidSession   = errors.New("invalid or expired refresh token")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")

	ErrValidation   = errors.New("validation failed")
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError carries a reason per offending field. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidTokenError is returned by TokenCodec.Decode. Reason is safe to
// show to clients. It matches ErrInvalidToken with errors.Is.
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string { return "invalid token: " + e.Reason }

func (e *InvalidTokenError) Is(target error) bool { return target == ErrInvalidToken }

// validator collects field errors.
type validator map[string]string

func (v validator) check(field string, err error) {
	if err != nil {
		if _, seen := v[field]; !seen {
			v[field] = err.Error()
		}
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}
