package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// errorMapping translates one service error into a response.
type errorMapping struct {
	target  error
	status  int
	message string
}

// defaultMappings apply to every handler unless overridden.
var defaultMappings = []errorMapping{
	{service.ErrEmailTaken, http.StatusBadRequest, "Email already registered"},
	{service.ErrInvalidInvite, http.StatusBadRequest, "Invalid invite code"},
	{service.ErrInviteUsed, http.StatusBadRequest, "Invite code already used"},
	{service.ErrInviteExpired, http.StatusBadRequest, "Invite code expired"},
	{service.ErrEmailMismatch, http.StatusBadRequest, "This invite is for a different email address"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{service.ErrAccountInactive, http.StatusForbidden, "Account is inactive"},
	{service.ErrInvalidSession, http.StatusUnauthorized, "Invalid or expired refresh token"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "Authentication required"},
	{service.ErrPermissionDenied, http.StatusForbidden, "Admin access required"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrBootstrapDisabled, http.StatusNotFound, "Bootstrap endpoint is not enabled"},
	{service.ErrBootstrapUnauthorized, http.StatusUnauthorized, "Invalid bootstrap token"},
	{service.ErrBootstrapAlready, http.StatusConflict, "System has already been bootstrapped"},
}

// writeServiceError writes the response for err. Overrides are consulted
// before the defaults; anything unmapped is logged and answered with a
// generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, overrides ...errorMapping) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		httpx.WriteValidationError(w, verr.Fields)
		return
	}

	for _, table := range [][]errorMapping{overrides, defaultMappings} {
		for _, m := range table {
			if errors.Is(err, m.target) {
				if errors.Is(err, service.ErrUnauthenticated) {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				httpx.WriteError(w, m.status, m.message)
				return
			}
		}
	}

	slogx.FromContext(r.Context()).Error("unhandled service error",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	httpx.WriteInternalError(w)
}

// decodeBody decodes the JSON request body into v and answers 400 on
// failure. It reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", slog.Any("error", err))
		httpx.WriteError(w, http.StatusBadRequest, "Request body must be valid JSON")
		return false
	}
	return true
}
