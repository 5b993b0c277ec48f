/*
Package authsdk provides a client SDK for the shopauth authentication service.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: unauthenticated operations (register, login, refresh, logout, health)
  - Session: authenticated operations with automatic token refresh

Create an SDKClient and authenticate to obtain a Session:

	client := authsdk.NewSDKClient("https://auth.example.com")

	health, err := client.GetLiveness(ctx)

	session, err := client.Authenticate(ctx, authsdk.KindUser, "ana@example.com", "s3cret-pass")
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

Principal kinds are KindUser (role CUSTOMER) and KindAdmin (role ADMIN). Both
share one token pipeline but keep separate accounts and refresh tokens.

# Automatic Token Refresh

Every Session call goes through getValidToken, which refreshes the access
token 30 seconds before its expiry. If the server still answers
expired_token, the session refreshes once and retries the call. Refresh
tokens are not rotated, so RefreshToken keeps returning the same value until
the next login or logout.

# Error Handling

Every non-2xx response becomes an *APIError:

	_, err := client.Refresh(ctx, authsdk.KindUser, stored)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case authsdk.ErrorCodeTokenNotFound, authsdk.ErrorCodeExpiredToken:
			// log in again
		case authsdk.ErrorCodeRateLimited:
			time.Sleep(apiErr.RetryAfter)
		}
	}

# Admin Operations

Admin sessions can inspect and reset the global rate limiter:

	stats, err := session.RateLimitStats(ctx)
	err = session.RemoveRateLimitKey(ctx, "203.0.113.7")
	err = session.ClearRateLimits(ctx)

With CheckRole enabled (the default) these fail with ErrAdminRequired on a
non-admin session without making a request.

# Thread Safety

Sessions are safe for concurrent use. Concurrent callers that hit an expired
token share a single refresh.
*/
package authsdk
