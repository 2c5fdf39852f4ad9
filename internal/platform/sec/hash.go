// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// # Performance
//
// bcrypt is intentionally slow (CPU-bound). The Go runtime schedules the
// computation on a regular OS thread, so callers never block the network
// poller, but a call can still take tens of milliseconds.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version
// using bcrypt's constant-time comparison.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// dummyHash is a bcrypt digest of an unguessable throwaway value, used to
// equalize timing when a login identifier does not exist.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("kanso-timing-equalizer"), bcrypt.DefaultCost)

// CheckPasswordDummy burns one bcrypt comparison against a throwaway hash so
// that "unknown user" and "wrong password" take the same time.
func CheckPasswordDummy(plainTextPassword string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plainTextPassword))
}
