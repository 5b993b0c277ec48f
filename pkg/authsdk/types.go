package authsdk

// ============================================================================
// Request Types
// ============================================================================

// RegisterRequest creates a customer or admin account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token to the refresh and logout endpoints.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ============================================================================
// Response Types
// ============================================================================

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	// Error is the HTTP status text (e.g. "Unauthorized")
	Error string `json:"error"`

	// Code is the machine-readable failure (e.g. "expired_token")
	Code string `json:"code"`

	// Message is a human-readable description
	Message string `json:"message"`

	// RetryAfter is set on 429 responses, in seconds
	RetryAfter int64 `json:"retryAfter,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Message      string `json:"message"`
}

// RefreshResponse is returned by refresh. RefreshToken is the token that was
// presented; refresh tokens are not rotated.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	PrincipalID string `json:"principalId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// RateLimitStats mirrors the server's bucket cache statistics.
type RateLimitStats struct {
	Size          int     `json:"size"`
	HitCount      uint64  `json:"hitCount"`
	MissCount     uint64  `json:"missCount"`
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	EvictionCount uint64  `json:"evictionCount"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the account store connection status
	Database string `json:"database"`

	// RefreshTokens indicates the refresh-token store status when it is
	// separate from the database (e.g. Redis)
	RefreshTokens string `json:"refreshTokens,omitempty"`
}
