// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ctxutil provides typed accessors for request-scoped values.

Values are placed into the context by the HTTP middleware chain and read back
by handlers and services. All getters are nil-safe and return a zero value
when the context carries nothing, so callers never need to type-assert.
*/
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/kanso/internal/platform/ctxkey"
	"github.com/taibuivan/kanso/internal/platform/sec"
)

// # Request ID

// WithRequestID returns a context carrying the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.RequestID, id)
}

// RequestID returns the correlation ID, or "" if absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.RequestID).(string)
	return id
}

// # Logger

// WithLogger returns a context carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.Logger, logger)
}

// Logger returns the request-scoped logger, or slog.Default() if absent.
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.Logger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// # Authentication

// WithAuthentication returns a context carrying the verified caller identity.
func WithAuthentication(ctx context.Context, auth *sec.Authentication) context.Context {
	return context.WithValue(ctx, ctxkey.Authentication, auth)
}

// Authentication returns the caller identity, or nil for anonymous requests.
func Authentication(ctx context.Context) *sec.Authentication {
	auth, _ := ctx.Value(ctxkey.Authentication).(*sec.Authentication)
	return auth
}

// UserID returns the authenticated user's ID, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if auth := Authentication(ctx); auth != nil {
		return auth.UserID
	}
	return ""
}

// IsAdmin reports whether the caller is an authenticated administrator.
func IsAdmin(ctx context.Context) bool {
	auth := Authentication(ctx)
	return auth != nil && auth.Admin
}
