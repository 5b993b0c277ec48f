package httpx

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// ThrottleConfig defines a smooth per-endpoint rate. It sits behind the
// global bucket filter and guards credential endpoints against brute force.
type ThrottleConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

var (
	// StrictLimit for login and registration. 5 per minute.
	StrictLimit = ThrottleConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// ModerateLimit for refresh and logout. 20 per minute.
	ModerateLimit = ThrottleConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		Burst:             20,
	}
)

// ThrottleFromEnv reads RATELIMIT_{prefix}_REQUESTS, _WINDOW_SEC and _BURST
// over def. Invalid values are ignored.
func ThrottleFromEnv(prefix string, def ThrottleConfig) ThrottleConfig {
	config := def

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// KeyExtractor extracts the key a request is limited under.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys by client IP.
func IPKeyExtractor(r *http.Request) string {
	return ClientIP(r)
}

type throttle struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (t *throttle) limiter(key string) *rate.Limiter {
	if l, ok := t.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	l, _ := t.limiters.LoadOrStore(key, rate.NewLimiter(t.rate, t.burst))
	t.maybeCleanup()
	return l.(*rate.Limiter)
}

// maybeCleanup drops limiters that have refilled completely, at most every
// five minutes.
func (t *throttle) maybeCleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastCleanup) < 5*time.Minute {
		return
	}
	t.lastCleanup = time.Now()

	t.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(t.burst) {
			t.limiters.Delete(key)
		}
		return true
	})
}

// Throttle limits requests per key with a token-bucket from x/time/rate.
// Requests without a key pass through.
func Throttle(config ThrottleConfig, keyFn KeyExtractor) Middleware {
	t := &throttle{
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyFn(r)
			if key == "" {
				log.Warn("throttle: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			l := t.limiter(key)
			if !l.Allow() {
				reservation := l.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("throttle exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", delay,
				)
				autherr.Write(w, autherr.RateLimited(delay))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ThrottleByIP throttles per client IP.
func ThrottleByIP(config ThrottleConfig) Middleware {
	return Throttle(config, IPKeyExtractor)
}
