package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/ratelimit"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"

	_ "github.com/aussiebroadwan/shopauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger is a dependency /readyz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	limiter *ratelimit.Limiter

	TokenService   *service.TokenService
	RefreshService *service.RefreshService
	AccountService *service.AccountService

	// RefreshTokenPinger is set when refresh tokens live outside the
	// account database (Redis).
	RefreshTokenPinger Pinger

	// Per-endpoint throttles. Zero values fall back to httpx.StrictLimit and
	// httpx.ModerateLimit.
	StrictThrottle   httpx.ThrottleConfig
	ModerateThrottle httpx.ThrottleConfig
}

// NewRouter builds the router and its global chain: request logging, then
// the rate-limit filter, then bearer authentication. A nil limiter disables
// the filter.
func NewRouter(
	tokens *service.TokenService,
	st store.Store,
	limiter *ratelimit.Limiter,
	rl httpx.RateLimitOptions,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		limiter:      limiter,
		TokenService: tokens,
	}

	r.middlewares = []httpx.Middleware{slogx.HTTPMiddleware(r.logger)}
	if limiter != nil {
		if !rl.TrackByIP && rl.Principal == nil {
			rl.Principal = httpx.PrincipalKeyExtractor(tokens)
		}
		r.middlewares = append(r.middlewares, httpx.RateLimitFilter(limiter, rl))
	}
	r.middlewares = append(r.middlewares, httpx.AuthnMiddleware(tokens, httpx.DefaultPublicPrefixes))

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMe()
	r.registerRateLimitAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			ShopAuth Authentication Service API
//	@version		0.1.0
//	@description	Registration, login and token refresh for shop customers and admins.
//	@description	Access and refresh tokens are HS256 JWTs sealed with AES-GCM, so they are opaque to clients.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/shopauth
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
//	@description				Sealed access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	strict := orThrottle(r.StrictThrottle, httpx.StrictLimit)
	moderate := orThrottle(r.ModerateThrottle, httpx.ModerateLimit)

	h := &AuthHandler{
		Accounts: r.AccountService,
		Refresh:  r.RefreshService,
	}

	// Credential endpoints - strict limit by IP (brute force)
	r.Mux.Handle("POST /api/auth/{kind}/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister), httpx.Throttle(strict, httpx.IPKeyExtractor)),
	)
	r.Mux.Handle("POST /api/auth/{kind}/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin), httpx.Throttle(strict, httpx.IPKeyExtractor)),
	)

	r.Mux.Handle("POST /api/auth/{kind}/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh), httpx.Throttle(moderate, httpx.IPKeyExtractor)),
	)
	r.Mux.Handle("POST /api/auth/{kind}/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout), httpx.Throttle(moderate, httpx.IPKeyExtractor)),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{Now: r.TokenService.Now}

	r.Mux.Handle("GET /api/v1/me",
		httpx.Chain(h, httpx.RequireAuthenticated()),
	)
}

func (r *Router) registerRateLimitAdmin() {
	if r.limiter == nil {
		return
	}
	h := &RateLimitAdminHandler{Limiter: r.limiter}
	admin := httpx.RequireRole(string(domain.RoleAdmin))

	r.Mux.Handle("GET /api/v1/admin/ratelimit/stats", httpx.Chain(http.HandlerFunc(h.HandleStats), admin))
	r.Mux.Handle("DELETE /api/v1/admin/ratelimit/keys/{key}", httpx.Chain(http.HandlerFunc(h.HandleRemove), admin))
	r.Mux.Handle("DELETE /api/v1/admin/ratelimit", httpx.Chain(http.HandlerFunc(h.HandleClear), admin))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.RefreshTokenPinger))
}

func orThrottle(c, def httpx.ThrottleConfig) httpx.ThrottleConfig {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return def
	}
	return c
}
