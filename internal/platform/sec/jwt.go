// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, secret generation,
// JWT signing) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via narrow interfaces.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload embedded inside a JWT access token.
//
// # Why custom claims?
//
// By embedding the session binding and the authorization flags directly in
// the token, request authentication needs no database round-trip. The price
// is that Admin/EmailVerified can go stale: whenever either flag changes on
// the account, all access tokens derived from the user's sessions must be
// invalidated through the revocation cache.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID           string `json:"uid"`
	SessionID        string `json:"sid"`
	RefreshTokenHash string `json:"rth"`
	Admin            bool   `json:"adm"`
	EmailVerified    bool   `json:"emv"`
}

// internalClaims is the payload of a service-to-service bearer token.
type internalClaims struct {
	jwt.RegisteredClaims

	// Audience of the internal call, e.g. "auth".
	Service string `json:"svc"`
}

// TokenService signs and verifies self-contained bearer tokens using RS256.
//
// It covers two token families: user access tokens (AccessClaims) and
// short-lived internal service tokens. Both embed an expiry claim and reject
// any payload whose signature does not verify.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

// NewTokenService creates a new TokenService.
// It reads RSA keys from the provided filesystem paths.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}, nil
}

// NewTokenServiceFromKey creates a TokenService from an already parsed RSA
// private key. Primarily used by tests that generate throwaway keys.
func NewTokenServiceFromKey(privateKey *rsa.PrivateKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
	}
}

// # Access Tokens

// SignAccessToken creates a signed access token for the given identity.
func (service *TokenService) SignAccessToken(auth Authentication, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   auth.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:           auth.UserID,
		SessionID:        auth.SessionID,
		RefreshTokenHash: auth.RefreshTokenHash,
		Admin:            auth.Admin,
		EmailVerified:    auth.EmailVerified,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken checks the signature and validity of an access token and
// returns the embedded identity.
//
// # Failure Semantics
//
// Any failure (tampered payload, wrong algorithm, expired token) is returned
// as an error without further classification. Callers are expected to
// collapse every failure into a single "invalid token" signal so the cause
// is never leaked to the client.
func (service *TokenService) VerifyAccessToken(tokenString string) (*Authentication, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sec: invalid access token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid access token claims")
	}

	return &Authentication{
		UserID:           claims.UserID,
		SessionID:        claims.SessionID,
		RefreshTokenHash: claims.RefreshTokenHash,
		Admin:            claims.Admin,
		EmailVerified:    claims.EmailVerified,
	}, nil
}

// # Internal Service Tokens

// SignInternalToken creates a short-lived bearer token authorizing an
// internal service-to-service call against the given audience.
func (service *TokenService) SignInternalToken(audience string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := internalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Service: audience,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign internal token: %w", err)
	}

	return signedToken, nil
}

// VerifyInternalToken checks an internal service token and that it was issued
// for the expected audience.
func (service *TokenService) VerifyInternalToken(tokenString, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, &internalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	})
	if err != nil {
		return fmt.Errorf("sec: invalid internal token: %w", err)
	}

	claims, ok := token.Claims.(*internalClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("sec: invalid internal token claims")
	}

	if claims.Service != audience {
		return fmt.Errorf("sec: internal token issued for %q, expected %q", claims.Service, audience)
	}

	return nil
}
