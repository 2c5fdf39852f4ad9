// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// # Random Secret Generation

// Alphabets for the different secret families. Recovery codes use uppercase
// letters and digits only so they survive being read aloud or written down.
const (
	alphanumeric       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	uppercaseAndDigits = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Recovery code shape: CHUNK_COUNT chunks of CHUNK_SIZE characters joined by
// hyphens, e.g. "PJVURV-QRK3YJ-O3U7T6-D50KAC".
const (
	RecoveryCodeChunkCount = 4
	RecoveryCodeChunkSize  = 6
)

// GenerateSecureToken returns a cryptographically random alphanumeric string
// of the given length.
//
// # Usage
//
// This is the generator behind refresh tokens and any other opaque
// high-entropy credential. Length is measured in characters, each carrying
// ~5.95 bits of entropy.
func GenerateSecureToken(length int) (string, error) {
	return randomString(alphanumeric, length)
}

// GenerateRandomBytes returns n bytes of cryptographically random data.
func GenerateRandomBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return out, nil
}

// GenerateRecoveryCode returns a new hyphenated MFA recovery code.
//
// The code is a single-use break-glass credential: redeeming it disables MFA
// entirely for the account. Only its SHA-256 hash is ever stored.
func GenerateRecoveryCode() (string, error) {
	chunks := make([]string, 0, RecoveryCodeChunkCount)
	for i := 0; i < RecoveryCodeChunkCount; i++ {
		chunk, err := randomString(uppercaseAndDigits, RecoveryCodeChunkSize)
		if err != nil {
			return "", err
		}
		chunks = append(chunks, chunk)
	}
	return strings.Join(chunks, "-"), nil
}

// randomString draws length characters uniformly from the given alphabet
// using crypto/rand. Modulo bias is avoided by rand.Int's rejection sampling.
func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		index, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate random index: %w", err)
		}
		builder.WriteByte(alphabet[index.Int64()])
	}

	return builder.String(), nil
}
