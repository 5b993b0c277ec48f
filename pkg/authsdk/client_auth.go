package authsdk

import (
	"context"
	"net/http"
)

// Register creates an account of kind (KindUser or KindAdmin) and returns
// its first token pair.
func (c *SDKClient) Register(ctx context.Context, kind string, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, "/api/auth/"+kind+"/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with email and password.
func (c *SDKClient) Login(ctx context.Context, kind string, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, "/api/auth/"+kind+"/login", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *SDKClient) Refresh(ctx context.Context, kind, refreshToken string) (*RefreshResponse, error) {
	var out RefreshResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	if err := c.postJSON(ctx, "/api/auth/"+kind+"/refresh", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes a refresh token. Revoking an unknown token succeeds.
func (c *SDKClient) Logout(ctx context.Context, kind, refreshToken string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/"+kind+"/logout", RefreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Authenticate logs in and wraps the resulting tokens in a Session.
func (c *SDKClient) Authenticate(ctx context.Context, kind, email, password string) (*Session, error) {
	auth, err := c.Login(ctx, kind, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return newSession(c, kind, auth), nil
}
