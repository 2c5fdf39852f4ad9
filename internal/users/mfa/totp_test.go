// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"encoding/base32"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(24)
	require.NoError(t, err)

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, raw, 24)

	other, err := GenerateSecret(24)
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestValidateCode(t *testing.T) {
	secret, err := GenerateSecret(24)
	require.NoError(t, err)
	now := time.Now()

	code, err := GenerateCode(secret, now)
	require.NoError(t, err)
	require.Len(t, code, 6)

	assert.True(t, ValidateCode(code, secret, now))
	assert.True(t, ValidateCode(code, secret, now.Add(30*time.Second)),
		"one step of skew is tolerated")
	assert.False(t, ValidateCode(code, secret, now.Add(90*time.Second)),
		"a code two steps old is rejected")
	assert.False(t, ValidateCode("000000", secret, now))
	assert.False(t, ValidateCode("", secret, now))
}

func TestProvisioningURL(t *testing.T) {
	u := ProvisioningURL("Kanso", "alice@example.com", "JBSWY3DPEHPK3PXP")

	assert.Contains(t, u, "otpauth://totp/")
	assert.Contains(t, u, "secret=JBSWY3DPEHPK3PXP")
	assert.Contains(t, u, "issuer=Kanso")
	assert.Contains(t, u, "Kanso:alice@example.com")
	assert.Contains(t, u, "period=30")
}
