package httpx

import "context"

// Principal is the authenticated caller as seen by the middleware.
type Principal interface {
	PrincipalID() string
	PrincipalIsAdmin() bool
	PrincipalIsVerified() bool
}

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFrom returns the caller resolved by AuthnMiddleware, or nil.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(ctxKeyPrincipal).(Principal)
	return p
}
