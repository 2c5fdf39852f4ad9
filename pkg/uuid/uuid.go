// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuid generates time-ordered UUIDv7 identifiers for database keys.
// v7 keeps primary key indexes append-mostly, unlike random v4.
package uuid

import "github.com/google/uuid"

// New returns a new UUIDv7 string, falling back to v4 if the monotonic
// clock source fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Validate reports whether s is a parseable UUID of any version.
func Validate(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
