package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/ratelimit"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// RateLimitOptions configures RateLimitFilter.
type RateLimitOptions struct {
	Enabled bool

	// TrackByIP keys buckets by client IP. When false, authenticated callers
	// are keyed by principal id (resolved by Principal) and anonymous ones
	// fall back to their IP.
	TrackByIP bool

	// ExcludedPaths are Ant-style patterns that are never limited.
	ExcludedPaths []string

	// Principal resolves the caller's principal id, "" when anonymous. The
	// filter runs ahead of authentication so it resolves identity itself.
	Principal KeyExtractor

	Now func() time.Time
}

// RateLimitFilter admits or rejects each request against l. Admitted
// responses carry the X-RateLimit-* headers; rejected requests get 429 and
// never reach next.
func RateLimitFilter(l *ratelimit.Limiter, opts RateLimitOptions) Middleware {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	windowSec := int64(l.Window() / time.Second)
	limit := strconv.FormatInt(l.Capacity(), 10)

	return func(next http.Handler) http.Handler {
		if !opts.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if MatchAny(opts.ExcludedPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			log := slogx.FromContext(r.Context())

			id := rateLimitIdentifier(r, opts)
			if id == "" {
				// No usable identifier; the limiter fails open.
				log.Warn("rate limit: unable to resolve identifier, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			now := opts.Now().Unix()

			if l.TryConsume(id) {
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.AvailableTokens(id), 10))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now+windowSec, 10))
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := l.SecondsUntilRefill(id)
			log.Warn("rate limit exceeded",
				"key", id,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now+retryAfter, 10))

			rejected := autherr.RateLimited(time.Duration(retryAfter) * time.Second)
			body := autherr.NewBody(rejected)
			body.Message = fmt.Sprintf(
				"Rate limit exceeded. You have exceeded the maximum of %d requests per %d second(s). Please try again in %d seconds.",
				l.Capacity(), windowSec, body.RetryAfter,
			)
			body.Path = r.URL.Path
			body.Timestamp = opts.Now().UTC().Format(time.RFC3339)
			autherr.WriteBody(w, rejected, body)
		})
	}
}

func rateLimitIdentifier(r *http.Request, opts RateLimitOptions) string {
	if !opts.TrackByIP && opts.Principal != nil {
		if id := opts.Principal(r); id != "" {
			return "principal:" + id
		}
	}
	return ClientIP(r)
}

// PrincipalKeyExtractor resolves the principal id from a valid bearer access
// token. Invalid or missing tokens yield "" and are left for the
// authentication filter to reject.
func PrincipalKeyExtractor(v TokenValidator) KeyExtractor {
	return func(r *http.Request) string {
		raw, ok := BearerToken(r)
		if !ok {
			return ""
		}
		c, err := v.ValidateAccess(raw)
		if err != nil {
			return ""
		}
		return c.PrincipalID
	}
}
