package http

import (
	"net/http"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/pkg/authsdk"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister godoc
//
//	@Summary		Register with an invite code
//	@Description	Creates an account by redeeming an invite code and signs it in. The invite is consumed atomically with the account creation.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Registration"
//	@Success		200		{object}	authsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Email taken or invite invalid, used, expired or pinned to another email"
//	@Failure		422		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Register(r.Context(), service.RegisterParams{
		Email:      req.Email,
		Password:   req.Password,
		InviteCode: req.InviteCode,
		Client:     clientInfo(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Authenticates with email and password and opens a new session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid email or password"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Account is inactive"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password, clientInfo(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleRefresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a refresh token for a new token pair. The presented refresh token is revoked; each refresh token works exactly once.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or expired refresh token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Account is inactive"
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleLogout godoc
//
//	@Summary		Log out everywhere
//	@Description	Revokes every active session of the caller. Outstanding access tokens stay valid until they expire.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Successfully logged out"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.AuthService.Logout(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, "Successfully logged out")
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Returns the caller's profile, tier and effective feature limits.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	profile, err := h.AuthService.Me(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(profile))
}

// HandleChangePassword godoc
//
//	@Summary		Change password
//	@Description	Replaces the caller's password and revokes every session of the account, including the current one.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	authsdk.MessageResponse			"Password changed successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Current password is incorrect"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		422		{object}	authsdk.ErrorResponse	"New password fails the policy"
//	@Security		BearerAuth
//	@Router			/auth/change-password [post].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req authsdk.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.AuthService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err, errorMapping{
			service.ErrInvalidCredentials, http.StatusBadRequest, "Current password is incorrect",
		})
		return
	}

	httpx.WriteMessage(w, "Password changed successfully")
}
