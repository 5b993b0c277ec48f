package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/ratelimit"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// RateLimitAdminHandler exposes the global limiter to admins.
type RateLimitAdminHandler struct {
	Limiter *ratelimit.Limiter
}

// HandleStats serves GET /api/v1/admin/ratelimit/stats.
//
//	@Summary		Rate limiter statistics
//	@Description	Bucket cache size, hit and miss counts and evictions of the global limiter
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.RateLimitStats
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires ADMIN role"
//	@Security		BearerAuth
//	@Router			/api/v1/admin/ratelimit/stats [get]
func (h *RateLimitAdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Limiter.Stats())
}

// HandleRemove serves DELETE /api/v1/admin/ratelimit/keys/{key}. Removing
// a key without a bucket is still 204.
//
//	@Summary		Reset one rate limit key
//	@Description	Drops the bucket for a client IP or "principal:<id>" key
//	@Tags			Admin
//	@Param			key	path	string	true	"Bucket key"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires ADMIN role"
//	@Security		BearerAuth
//	@Router			/api/v1/admin/ratelimit/keys/{key} [delete]
func (h *RateLimitAdminHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	removed := h.Limiter.Remove(key)

	slogx.FromContext(r.Context()).Info("rate limit bucket removed",
		"key", key,
		"existed", removed,
		"by", httpx.PrincipalIDFromContext(r.Context()),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear serves DELETE /api/v1/admin/ratelimit.
//
//	@Summary		Reset every rate limit key
//	@Tags			Admin
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Forbidden - requires ADMIN role"
//	@Security		BearerAuth
//	@Router			/api/v1/admin/ratelimit [delete]
func (h *RateLimitAdminHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.Limiter.Clear()

	slogx.FromContext(r.Context()).Info("rate limit buckets cleared",
		"by", httpx.PrincipalIDFromContext(r.Context()),
	)
	w.WriteHeader(http.StatusNoContent)
}
