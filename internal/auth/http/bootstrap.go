package http

import (
	"net/http"
	"strings"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/pkg/authsdk"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first administrator (email verified, enterprise tier) and a batch of 30-day invites. Only available when a bootstrap token is configured and no user exists yet.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string						true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest	true	"Administrator and invite count"
//	@Success		201					{object}	authsdk.BootstrapResponse	"Administrator ID and invite codes"
//	@Failure		400					{object}	authsdk.ErrorResponse		"Invalid request body"
//	@Failure		401					{object}	authsdk.ErrorResponse		"Missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse		"Bootstrap not enabled (no token configured)"
//	@Failure		409					{object}	authsdk.ErrorResponse		"System already bootstrapped"
//	@Failure		422					{object}	authsdk.ErrorResponse		"Validation failed"
//	@Router			/auth/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		writeServiceError(w, r, service.ErrBootstrapDisabled)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "Bootstrap token is required in X-Bootstrap-Token header")
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		httpx.WriteValidationError(w, errs)
		return
	}

	// 4. Perform bootstrap
	res, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		AdminEmail:    strings.TrimSpace(req.AdminEmail),
		AdminPassword: req.AdminPassword,
		InviteCount:   req.InviteCount,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// 5. Respond with the admin ID and the invite codes (only shown once)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{
		AdminUserID: res.AdminID,
		InviteCodes: res.InviteCodes,
	})
}
