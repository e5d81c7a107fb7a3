package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Admin operations. The caller must be an administrator; others get a 403
// *APIError.

// CreateInvite mints a new invite code.
func (s *Session) CreateInvite(ctx context.Context, req InviteRequest) (*InviteResponse, error) {
	resp, err := s.doAuthJSON(ctx, http.MethodPost, "/auth/invites", req)
	if err != nil {
		return nil, err
	}

	var invite InviteResponse
	if err := decodeJSON(resp, &invite, http.StatusOK); err != nil {
		return nil, err
	}

	return &invite, nil
}

// ListInvites lists invites with counts. By default only active invites
// are returned.
func (s *Session) ListInvites(ctx context.Context, opts ListInvitesOptions) (*InviteListResponse, error) {
	q := url.Values{}
	if opts.IncludeUsed {
		q.Set("include_used", strconv.FormatBool(true))
	}
	if opts.IncludeExpired {
		q.Set("include_expired", strconv.FormatBool(true))
	}
	path := "/auth/invites"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var list InviteListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}

// RevokeInvite deletes an unused invite.
func (s *Session) RevokeInvite(ctx context.Context, inviteID string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/auth/invites/"+url.PathEscape(inviteID), nil, nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}
