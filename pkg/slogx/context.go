package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or slog.Default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithPrincipal tags every later log line of the request with the
// authenticated principal.
func WithPrincipal(ctx context.Context, principalID, role string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("principal_id", principalID, "role", role))
}
