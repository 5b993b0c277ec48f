package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// TokenValidator resolves a bearer access token to its claims. Failures are
// *autherr.Error values.
type TokenValidator interface {
	ValidateAccess(token string) (jwtx.Claims, error)
}

// DefaultPublicPrefixes are never authenticated. An entry ending in "/"
// covers everything under it; any other entry covers that exact path and the
// paths below it, so "/login" does not cover "/loginx".
var DefaultPublicPrefixes = []string{
	"/api/auth/",
	"/login",
	"/actuator/",
	"/ws/",
	"/favicon.ico",
	"/.well-known/",
	"/livez",
	"/readyz",
	"/swagger/",
}

// AuthnMiddleware authenticates bearer tokens. Requests on a public prefix and
// requests without a bearer continue anonymously; a bearer that fails
// validation is rejected with 401 and never reaches the handler.
func AuthnMiddleware(v TokenValidator, publicPrefixes []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx)

			claims, err := v.ValidateAccess(raw)
			if err != nil {
				var ae *autherr.Error
				if errors.As(err, &ae) && ae.Kind == autherr.KindExpiredToken {
					log.Warn("token rejected", "kind", ae.Kind.String(), "subject", ae.Subject)
				} else {
					log.Warn("token rejected", "kind", autherr.KindOf(err).String(), "err", err)
				}
				autherr.Write(w, err)
				return
			}

			ctx = ContextWithClaims(ctx, claims)
			ctx = slogx.WithPrincipal(ctx, claims.PrincipalID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPublicPath(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(p, prefix) {
				return true
			}
			continue
		}
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
