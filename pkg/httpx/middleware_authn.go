package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// Authenticator resolves a raw bearer token to a Principal. A nil Principal
// with a nil error means the token did not authenticate; a non-nil error is
// an internal failure.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthnMiddleware requires a valid bearer token and stores the resolved
// Principal in the request context.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerChallenge(w, "", "Authentication required")
				return
			}

			p, err := a.Authenticate(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Error("authenticate bearer token", slog.Any("error", err))
				WriteInternalError(w)
				return
			}
			if p == nil {
				writeBearerChallenge(w, "invalid_token", "Invalid authentication credentials")
				return
			}

			ctx = slogx.WithUserID(WithPrincipal(ctx, p), p.PrincipalID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthn resolves the caller when a valid bearer token is present
// and otherwise lets the request through anonymously.
func OptionalAuthn(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw, ok := BearerToken(r); ok {
				p, err := a.Authenticate(ctx, raw)
				if err != nil {
					slogx.FromContext(ctx).Warn("optional authentication failed", slog.Any("error", err))
				} else if p != nil {
					ctx = slogx.WithUserID(WithPrincipal(ctx, p), p.PrincipalID())
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers that are not administrators.
func RequireAdmin() Middleware {
	return requirePrincipal(Principal.PrincipalIsAdmin, "Admin access required")
}

// RequireVerified rejects callers whose email is not verified.
func RequireVerified() Middleware {
	return requirePrincipal(Principal.PrincipalIsVerified, "Email verification required")
}

func requirePrincipal(allowed func(Principal) bool, message string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p == nil {
				writeBearerChallenge(w, "", "Authentication required")
				return
			}
			if !allowed(p) {
				WriteError(w, http.StatusForbidden, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750 challenge.
func writeBearerChallenge(w http.ResponseWriter, code, message string) {
	challenge := "Bearer"
	if code != "" {
		challenge += ` error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	WriteError(w, http.StatusUnauthorized, message)
}
