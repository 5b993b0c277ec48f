package app

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/ratelimit"
)

// DefaultExcludedPaths are never rate limited.
var DefaultExcludedPaths = []string{
	"/actuator/**",
	"/error",
	"/favicon.ico",
	"/.well-known/**",
	"/livez",
	"/readyz",
}

type Config struct {
	JWTSecret          string        // Required: HS256 key, at least 32 bytes
	TokenEncryptionKey string        // Required: AES-256 key, 64 hex characters
	AccessTTL          time.Duration // Customer access token lifetime (default: 15m)
	AdminAccessTTL     time.Duration // Admin access token lifetime (default: 1h)
	RefreshTTL         time.Duration // Refresh token and record lifetime (default: 168h)
	Issuer             string        // iss claim (default: shopauth)

	RateLimitEnabled       bool          // Global filter on/off (default: true)
	RateLimitCapacity      int64         // Requests per bucket (default: 100)
	RateLimitWindow        time.Duration // Bucket window and idle TTL (default: 100s)
	RateLimitTrackByIP     bool          // Key buckets by IP instead of principal (default: true)
	RateLimitMaxCacheSize  int           // Tracked identifiers (default: 100000)
	RateLimitExcludedPaths []string      // Ant patterns exempt from limiting

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite database file (default: ./auth.db)
	DatabaseURL    string // Postgres DSN, required for the postgres driver
	PepperFile     string // File holding the password pepper (default: ./pepper)

	RedisAddr     string // Optional: when set, refresh tokens live in Redis
	RedisPassword string
	RedisDB       int

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads the environment, after merging in DOTENV_FILE (default
// .env). Precedence is OS environment, then .env, then defaults.
func LoadConfig() (Config, error) {
	if err := LoadDotEnv(getEnvOrDefault("DOTENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenEncryptionKey: os.Getenv("TOKEN_ENCRYPTION_KEY"),
		AccessTTL:          getEnvDurationOrDefault("JWT_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		AdminAccessTTL:     getEnvDurationOrDefault("JWT_ADMIN_ACCESS_TTL", jwtx.DefaultAdminAccessTokenTTL),
		RefreshTTL:         getEnvDurationOrDefault("JWT_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		Issuer:             getEnvOrDefault("JWT_ISSUER", "shopauth"),

		RateLimitEnabled:       getEnvBoolOrDefault("RATE_LIMIT_ENABLED", true),
		RateLimitCapacity:      int64(getEnvIntOrDefault("RATE_LIMIT_CAPACITY", ratelimit.DefaultCapacity)),
		RateLimitWindow:        time.Duration(getEnvIntOrDefault("RATE_LIMIT_REFILL_SECONDS", 100)) * time.Second,
		RateLimitTrackByIP:     getEnvBoolOrDefault("RATE_LIMIT_TRACK_BY_IP", true),
		RateLimitMaxCacheSize:  getEnvIntOrDefault("RATE_LIMIT_MAX_CACHE_SIZE", ratelimit.DefaultMaxEntries),
		RateLimitExcludedPaths: getEnvListOrDefault("RATE_LIMIT_EXCLUDED_PATHS", DefaultExcludedPaths),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PepperFile:     getEnvOrDefault("PEPPER_FILE", "pepper"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg, cfg.Validate()
}

// Validate fails fast on settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < jwtx.MinHS256KeySize {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinHS256KeySize))
	}
	if key, err := hex.DecodeString(c.TokenEncryptionKey); err != nil || len(key) != 32 {
		errs = append(errs, errors.New("TOKEN_ENCRYPTION_KEY must be 64 hex characters"))
	}
	if c.AccessTTL <= 0 || c.AdminAccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitWindow <= 0 || c.RateLimitMaxCacheSize <= 0 {
		errs = append(errs, errors.New("rate limit capacity, window and cache size must be positive"))
	}

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping empty items.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
