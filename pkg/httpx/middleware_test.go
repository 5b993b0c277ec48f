package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("first"), mw("second"), mw("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	var seen string
	var authenticated bool
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.PrincipalIDFromContext(r.Context())
		_, authenticated = httpx.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := httpx.AuthnMiddleware(newStubValidator(), httpx.DefaultPublicPrefixes)(capture)

	serve := func(path, authz string) *httptest.ResponseRecorder {
		seen, authenticated = "", false
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid bearer", func(t *testing.T) {
		rec := serve("/api/v1/me", "Bearer customer-token")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "cust-1", seen)
		require.True(t, authenticated)
	})

	t.Run("no bearer continues anonymous", func(t *testing.T) {
		rec := serve("/api/v1/products", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, seen)
		require.False(t, authenticated)
	})

	t.Run("non bearer scheme continues anonymous", func(t *testing.T) {
		rec := serve("/api/v1/products", "Basic dXNlcjpwYXNz")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, seen)
	})

	t.Run("invalid bearer", func(t *testing.T) {
		rec := serve("/api/v1/me", "Bearer garbage")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, authenticated)

		var body autherr.Body
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "Unauthorized", body.Error)
		require.Equal(t, "Invalid token", body.Message)
	})

	t.Run("expired bearer", func(t *testing.T) {
		rec := serve("/api/v1/me", "Bearer expired-token")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body autherr.Body
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "expired_token", body.Code)
	})

	t.Run("public prefix skips validation", func(t *testing.T) {
		for _, path := range []string{"/api/auth/user/login", "/login", "/login/sso", "/livez"} {
			rec := serve(path, "Bearer garbage")
			require.Equal(t, http.StatusOK, rec.Code, path)
			require.Empty(t, seen)
		}
	})

	t.Run("public entries match whole segments", func(t *testing.T) {
		for _, path := range []string{"/loginx", "/livez-debug", "/api/authx"} {
			rec := serve(path, "Bearer garbage")
			require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})
}

func TestRequireAuthenticated(t *testing.T) {
	h := httpx.Chain(okHandler,
		httpx.AuthnMiddleware(newStubValidator(), nil),
		httpx.RequireAuthenticated(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer customer-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := httpx.Chain(okHandler,
		httpx.AuthnMiddleware(newStubValidator(), nil),
		httpx.RequireRole("ADMIN"),
	)

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"customer", "Bearer customer-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ratelimit/stats", nil)
			if tt.authz != "" {
				req.Header.Set("Authorization", tt.authz)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := httpx.BearerToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "bearer   abc ")
	tok, ok := httpx.BearerToken(req)
	require.True(t, ok)
	require.Equal(t, "abc", tok)

	req.Header.Set("Authorization", "Bearer ")
	_, ok = httpx.BearerToken(req)
	require.False(t, ok)
}
