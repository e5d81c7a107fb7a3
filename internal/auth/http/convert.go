package http

import (
	"net/http"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/pkg/authsdk"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
)

const tokenTypeBearer = "bearer"

func toTokenResponse(p domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(p.ExpiresIn / time.Second),
	}
}

func toUserResponse(p service.Profile) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:            p.User.ID,
		Email:         p.User.Email,
		IsActive:      p.User.IsActive,
		IsAdmin:       p.User.IsAdmin,
		EmailVerified: p.User.EmailVerified,
		CreatedAt:     p.User.CreatedAt,
		LastLogin:     p.User.LastLogin,
		Tier:          p.Tier,
		Features:      p.Features,
	}
}

func toInviteResponse(inv domain.Invite, now time.Time) authsdk.InviteResponse {
	return authsdk.InviteResponse{
		ID:        inv.ID,
		Code:      inv.Code,
		Email:     optional(inv.Email),
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
		IsUsed:    inv.IsUsed(),
		IsExpired: inv.IsExpired(now),
		Notes:     optional(inv.Notes),
	}
}

func toInviteListResponse(list domain.InviteList, now time.Time) authsdk.InviteListResponse {
	invites := make([]authsdk.InviteResponse, 0, len(list.Invites))
	for _, inv := range list.Invites {
		invites = append(invites, toInviteResponse(inv, now))
	}
	return authsdk.InviteListResponse{
		Invites: invites,
		Total:   list.Total,
		Active:  list.Active,
		Used:    list.Used,
		Expired: list.Expired,
	}
}

// optional maps "" to JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clientInfo(r *http.Request) domain.ClientInfo {
	return domain.ClientInfo{
		IP:        httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	}
}

// currentUser returns the user resolved by the authn middleware.
func currentUser(r *http.Request) (domain.User, bool) {
	u, ok := httpx.PrincipalFrom(r.Context()).(domain.User)
	return u, ok
}
