package authsdk

import (
	"context"
	"net/http"
)

// User operations - standard user-facing operations

// Me returns the caller's profile with tier and feature limits.
// Automatically refreshes the access token if expired.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// Logout revokes every session of the account, on all devices. The
// Session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	if err := decodeJSON(resp, &msg, http.StatusOK); err != nil {
		return err
	}

	s.close()
	return nil
}

// ChangePassword replaces the password. The server revokes every session
// including this one, so the Session is closed on success; log in again
// with the new password.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/auth/change-password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}

	var msg MessageResponse
	if err := decodeJSON(resp, &msg, http.StatusOK); err != nil {
		return err
	}

	s.close()
	return nil
}
