package httpx

import (
	"net/http"
	"slices"

	"github.com/aussiebroadwan/shopauth/pkg/autherr"
)

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalIDFromContext(r.Context()) == "" {
				autherr.ErrUnauthorized.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits callers holding one of roles. Anonymous callers get
// 401, authenticated callers with another role get 403.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if PrincipalIDFromContext(ctx) == "" {
				autherr.ErrUnauthorized.WriteError(w)
				return
			}
			if !slices.Contains(roles, roleFromContext(ctx)) {
				autherr.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
