// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the private context key type used by ctxutil and the
// HTTP middleware. Keys are unexported values of an unexported type so no
// other package can collide with them.
package ctxkey

type key int

const (
	// RequestID stores the per-request correlation ID (string).
	RequestID key = iota
	// Logger stores the request-scoped *slog.Logger.
	Logger
	// Authentication stores the *sec.Authentication of the caller.
	Authentication
)
