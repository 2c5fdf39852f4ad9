// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kanso/internal/platform/apperr"
)

func TestValidatorAccumulates(t *testing.T) {
	v := New()
	v.Required("name", "")
	v.Email("email", "not-an-email")
	v.Password("password", "short")

	require.True(t, v.HasErrors())
	err := v.Err()
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Len(t, ae.Details, 3)
}

func TestValidatorPasses(t *testing.T) {
	v := New()
	v.Required("name", "alice")
	v.Name("name", "alice")
	v.Email("email", "alice@example.com")
	v.Password("password", "correct-horse-battery")

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err())
}

func TestName(t *testing.T) {
	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{"simple", "alice", true},
		{"with separators", "alice.dev_01-x", true},
		{"too short", "ab", false},
		{"too long", strings.Repeat("a", 33), false},
		{"leading dot", ".alice", false},
		{"spaces", "alice smith", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			v.Name("name", tc.value)
			assert.Equal(t, !tc.valid, v.HasErrors())
		})
	}
}

func TestPasswordBounds(t *testing.T) {
	v := New()
	v.Password("password", strings.Repeat("x", PasswordMinLength))
	assert.False(t, v.HasErrors())

	v = New()
	v.Password("password", strings.Repeat("x", PasswordMaxLength+1))
	assert.True(t, v.HasErrors())
}

func TestOneOf(t *testing.T) {
	v := New()
	v.OneOf("sort", "created_at", "created_at", "name")
	assert.False(t, v.HasErrors())

	v = New()
	v.OneOf("sort", "password_hash", "created_at", "name")
	assert.True(t, v.HasErrors())
}
