package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

// ReadyzHandler pings the account store and, when set, the separate
// refresh-token store. Any failure answers 503 "degraded".
//
//	@Summary		Readiness check
//	@Description	Pings the account database and, when configured, the Redis refresh-token store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse	"A dependency is down"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	refreshTokens Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := db.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if refreshTokens != nil {
			checks.RefreshTokens = "ok"
			if err := refreshTokens.Ping(r.Context()); err != nil {
				checks.RefreshTokens = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
