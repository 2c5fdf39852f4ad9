// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package request provides helpers for decoding and validating HTTP request
// bodies and URL parameters.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kanso/internal/platform/apperr"
)

// maxBodyBytes caps request bodies to keep malicious payloads cheap.
const maxBodyBytes = 1 << 20 // 1 MiB

/*
DecodeJSON reads and decodes the request body into dst.

Unknown fields are rejected so client typos surface as 400s instead of
silently ignored input.

Parameters:
  - r: The incoming request. The body is consumed.
  - dst: Pointer to the target struct.

Returns:
  - error: A ValidationError describing the decode failure, or nil.
*/
func DecodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return apperr.ValidationError("Request body is empty")
		case errors.As(err, new(*json.SyntaxError)):
			return apperr.ValidationError("Request body contains malformed JSON")
		case errors.As(err, new(*json.UnmarshalTypeError)):
			return apperr.ValidationError("Request body contains a value of the wrong type")
		default:
			return apperr.ValidationError("Request body could not be parsed")
		}
	}
	if dec.More() {
		return apperr.ValidationError("Request body must contain a single JSON object")
	}
	return nil
}

// URLParam returns the named chi route parameter.
func URLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// QueryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// QueryString returns a string query parameter, falling back to def when absent.
func QueryString(r *http.Request, name, def string) string {
	if raw := r.URL.Query().Get(name); raw != "" {
		return raw
	}
	return def
}
