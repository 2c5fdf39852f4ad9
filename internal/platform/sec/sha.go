// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// # One-Way Hashing

// HashToken returns the lowercase hex SHA-256 digest of the given string.
//
// It is the canonical storage form for every secret the platform must be able
// to look up but never read back: refresh tokens, MFA recovery codes, and
// failed-login cache keys. The raw value is handed to the client exactly once
// and only its digest is ever persisted.
func HashToken(raw string) string {
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}

// HashBytes returns the lowercase hex SHA-256 digest of the given bytes.
func HashBytes(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// ConstantTimeEquals compares two strings in constant time.
//
// Use this when comparing a freshly computed digest against a stored one, so
// that mismatch position does not leak through response timing.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
