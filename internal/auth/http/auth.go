package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// AuthHandler serves /api/auth/{kind}/... for both principal kinds.
type AuthHandler struct {
	Accounts *service.AccountService
	Refresh  *service.RefreshService
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRegister serves POST /api/auth/{kind}/register.
//
//	@Summary		Register an account
//	@Description	Creates a customer ("user") or admin account and signs it straight in. The new refresh token replaces any the account held.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string					true	"Principal kind"	Enums(user, admin)
//	@Param			body	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid email, name or password"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown kind"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many attempts"
//	@Router			/api/auth/{kind}/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var req service.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		autherr.ErrInvalidRequest.WriteError(w)
		return
	}

	resp, err := h.Accounts.Register(r.Context(), kind, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// HandleLogin serves POST /api/auth/{kind}/login.
//
//	@Summary		Log in
//	@Description	Exchanges email and password for an access and refresh token pair. Any earlier refresh token for the account stops working.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string					true	"Principal kind"	Enums(user, admin)
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid email or password"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown kind"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many attempts"
//	@Router			/api/auth/{kind}/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var req service.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		autherr.ErrInvalidRequest.WriteError(w)
		return
	}

	resp, err := h.Accounts.Login(r.Context(), kind, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh serves POST /api/auth/{kind}/refresh. The refresh token in
// the response is the one presented.
//
//	@Summary		Refresh an access token
//	@Description	Issues a new access token for a stored, unexpired refresh token. Refresh tokens are not rotated.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string					true	"Principal kind"	Enums(user, admin)
//	@Param			body	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.RefreshResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token, expired_token or token_not_found"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown kind"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many attempts"
//	@Router			/api/auth/{kind}/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	token, ok := decodeRefreshToken(w, r)
	if !ok {
		return
	}

	resp, err := h.Refresh.RefreshAccessToken(r.Context(), kind, token)
	if err != nil {
		// Every failure on this path is one of the token kinds; store
		// errors fail closed as invalid_token.
		logTokenFailure(r, err)
		autherr.Write(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLogout serves POST /api/auth/{kind}/logout. Unknown tokens still
// answer 204.
//
//	@Summary		Log out
//	@Description	Deletes the stored refresh token. Outstanding access tokens stay valid until they expire.
//	@Tags			Auth
//	@Accept			json
//	@Param			kind	path	string					true	"Principal kind"	Enums(user, admin)
//	@Param			body	body	authsdk.RefreshRequest	true	"Refresh token"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Malformed body"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Unknown kind"
//	@Failure		429	{object}	authsdk.ErrorResponse	"Too many attempts"
//	@Router			/api/auth/{kind}/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	token, ok := decodeRefreshToken(w, r)
	if !ok {
		return
	}

	if err := h.Refresh.Revoke(r.Context(), kind, token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// pathKind resolves {kind}. Unknown kinds are 404 as if the route did not
// exist.
func pathKind(w http.ResponseWriter, r *http.Request) (domain.PrincipalKind, bool) {
	seg := r.PathValue("kind")
	if seg == string(domain.KindCustomer) {
		// The customer kind is only addressable as "user".
		autherr.ErrNotFound.WriteError(w)
		return "", false
	}
	kind, err := domain.ParseKind(seg)
	if err != nil {
		autherr.ErrNotFound.WriteError(w)
		return "", false
	}
	return kind, true
}

func decodeRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		autherr.NewAPIError(http.StatusBadRequest, autherr.CodeInvalidRequest, "refreshToken is required").WriteError(w)
		return "", false
	}
	return strings.TrimSpace(req.RefreshToken), true
}

// writeServiceError maps service failures onto the response. Token kinds go
// through autherr.Write, account failures become APIErrors and anything
// else is a logged 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *autherr.Error
	switch {
	case errors.As(err, &ae):
		logTokenFailure(r, err)
		autherr.Write(w, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		autherr.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAccountExists):
		autherr.ErrAccountExists.WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidRequest.Error()+": ")
		autherr.NewAPIError(http.StatusBadRequest, autherr.CodeInvalidRequest, msg).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		autherr.ErrServerError.WriteError(w)
	}
}

func logTokenFailure(r *http.Request, err error) {
	log := slogx.FromContext(r.Context())
	var ae *autherr.Error
	if errors.As(err, &ae) && ae.Kind == autherr.KindExpiredToken {
		log.Warn("token rejected", "kind", ae.Kind.String(), "subject", ae.Subject)
		return
	}
	log.Warn("token rejected", "kind", autherr.KindOf(err).String(), "err", err)
}
