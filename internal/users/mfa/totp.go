// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"encoding/base32"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/sec"
)

// validateOpts pins the TOTP parameters every common authenticator app
// implements: 30 second steps, 6 digits, SHA-1, one step of skew in each
// direction.
var validateOpts = totp.ValidateOpts{
	Period:    uint(constants.TotpPeriod / time.Second),
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// GenerateSecret returns a fresh base32-encoded TOTP secret from
// secretLength random bytes.
func GenerateSecret(secretLength int) (string, error) {
	raw, err := sec.GenerateRandomBytes(secretLength)
	if err != nil {
		return "", fmt.Errorf("mfa_secret_generate_failed: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// ProvisioningURL builds the otpauth:// URL an authenticator app enrolls
// from, typically rendered as a QR code by the client.
func ProvisioningURL(issuer, accountName, secret string) string {
	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("period", strconv.Itoa(int(constants.TotpPeriod/time.Second)))
	query.Set("digits", "6")
	query.Set("algorithm", "SHA1")

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + accountName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// ValidateCode checks a TOTP code against a secret at the given time.
func ValidateCode(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, validateOpts)
	return err == nil && ok
}

// GenerateCode computes the current code for a secret. Test helper and the
// basis for enrollment verification.
func GenerateCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, validateOpts)
	if err != nil {
		return "", fmt.Errorf("mfa_code_generate_failed: %w", err)
	}
	return code, nil
}
