package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

// MeHandler describes the caller from the claims the authentication filter
// put in the context. It never touches the store.
type MeHandler struct {
	Now func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Describe the caller
//	@Description	Returns the principal id, email and role carried by the bearer access token, and how long it stays valid.
//	@Tags			Account
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing, invalid or expired access token"
//	@Failure		429	{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Security		BearerAuth
//	@Router			/api/v1/me [get]
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		autherr.ErrUnauthorized.WriteError(w)
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	httpx.WriteJSON(w, http.StatusOK, domain.MeResponse{
		PrincipalID: claims.PrincipalID,
		Email:       claims.Subject,
		Role:        domain.Role(claims.Role),
		ExpiresIn:   int64(claims.ExpiresIn(now()) / time.Second),
	})
}
