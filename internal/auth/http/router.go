package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/store"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/metricsx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/nikhilsi/trading-recommendations-app/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-route limiter profiles.
type RateLimits struct {
	Credentials httpx.RateLimitConfig // register, login, refresh, bootstrap (by IP)
	Account     httpx.RateLimitConfig // authenticated self-service (by user)
	Admin       httpx.RateLimitConfig // invite management (by user)
	Public      httpx.RateLimitConfig // health and key discovery (by IP)
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Credentials: httpx.StrictLimit,
		Account:     httpx.ModerateLimit,
		Admin:       httpx.ModerateLimit,
		Public:      httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService      *service.AuthService
	InviteLedger     *service.InviteLedger
	BootstrapService *service.BootstrapService
	Gate             *service.Gate

	Metrics     *metricsx.Metrics
	Gatherer    prometheus.Gatherer // nil disables /metrics
	CORSOrigins []string
	RateLimits  RateLimits
	Now         func() time.Time
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   DefaultRateLimits(),
	}
}

// ApplyRoutes registers every route and builds the global middleware
// chain. Call it once, after the service fields are set.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvites()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	// Metrics wraps the mux directly so it sees the matched pattern.
	r.handler = httpx.Chain(r.Metrics.Middleware(r.Mux),
		httpx.Recover(),
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(r.CORSOrigins),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Trading Intelligence Authentication API
//	@version		0.1.0
//	@description	Invite-gated authentication for the Trading Intelligence platform.
//	@description
//	@description				Access tokens are short-lived JWTs; refresh tokens are opaque and single use.
//	@description				When tokens are signed with EdDSA the public keys are published at /auth/.well-known/jwks.json.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		http.Error(w, "router not initialised", http.StatusInternalServerError)
		return
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints - strict rate limit by IP (brute force and invite guessing)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.RateLimits.Credentials),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.RateLimits.Credentials),
		),
	)
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.RateLimits.Credentials),
		),
	)

	// Authenticated endpoints - moderate rate limit by user
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.Gate),
			httpx.RateLimitByUser(r.RateLimits.Account),
		)
	}
	r.Mux.Handle("POST /auth/logout", secured(h.HandleLogout))
	r.Mux.Handle("GET /auth/me", secured(h.HandleMe))
	r.Mux.Handle("POST /auth/change-password", secured(h.HandleChangePassword))
}

func (r *Router) registerInvites() {
	h := &InviteHandler{Invites: r.InviteLedger, Now: r.Now}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.Gate),
			httpx.RequireAdmin(),
			httpx.RateLimitByUser(r.RateLimits.Admin),
		)
	}
	r.Mux.Handle("POST /auth/invites", admin(h.HandleCreate))
	r.Mux.Handle("GET /auth/invites", admin(h.HandleList))
	r.Mux.Handle("DELETE /auth/invites/{id}", admin(h.HandleRevoke))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /auth/bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(r.RateLimits.Credentials),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)

	if r.keys != nil && r.keys.PublishesKeys() {
		r.Mux.Handle("GET /auth/.well-known/jwks.json",
			httpx.Chain(JWKSHandler(r.keys.KeySet),
				httpx.RateLimitByIP(r.RateLimits.Public),
			),
		)
	}

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", metricsx.Handler(r.Gatherer))
	}
}
