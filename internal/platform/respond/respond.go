// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond writes JSON responses and maps application errors to HTTP
// status codes in one place, so handlers never touch status codes directly.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/ctxutil"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxutil.Logger(r.Context()).Error("response_encode_failed", "error", err)
	}
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, r *http.Request, v any) {
	JSON(w, r, http.StatusOK, v)
}

// Created writes v with status 201.
func Created(w http.ResponseWriter, r *http.Request, v any) {
	JSON(w, r, http.StatusCreated, v)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

/*
Error writes err as a JSON error response.

AppErrors map to their HTTPStatus; anything else becomes an opaque 500. The
underlying cause of 5xx errors is logged with the request-scoped logger and
never serialized to the client.

Parameters:
  - w: The response writer.
  - r: The request, used for the context logger.
  - err: The error to map. Must be non-nil.
*/
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err)
	}
	if ae.HTTPStatus >= http.StatusInternalServerError {
		ctxutil.Logger(r.Context()).Error("request_failed",
			"status", ae.HTTPStatus,
			"code", ae.Code,
			"error", err,
		)
	}
	JSON(w, r, ae.HTTPStatus, ae)
}
