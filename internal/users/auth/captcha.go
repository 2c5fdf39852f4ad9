// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/kanso/internal/platform/config"
)

// RecaptchaVerifier implements [CaptchaVerifier] against the Google
// reCAPTCHA v3 siteverify endpoint. An empty secret disables verification:
// Enabled reports false and Verify accepts anything.
type RecaptchaVerifier struct {
	secret   string
	minScore float64
	endpoint string
	client   *http.Client
}

// NewRecaptchaVerifier creates a RecaptchaVerifier from configuration.
func NewRecaptchaVerifier(cfg config.Recaptcha) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:   cfg.Secret,
		minScore: cfg.MinScore,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether a site secret is configured.
func (v *RecaptchaVerifier) Enabled() bool {
	return v.secret != ""
}

// siteverifyResponse is the subset of the siteverify payload we act on.
type siteverifyResponse struct {
	Success bool     `json:"success"`
	Score   float64  `json:"score"`
	Errors  []string `json:"error-codes"`
}

/*
Verify submits the client response to siteverify.

Parameters:
  - ctx: Bounds the outbound request.
  - response: The token produced by the client-side widget.

Returns:
  - bool: True when the token verifies and its score clears the threshold.
    Always true when verification is disabled.
  - error: Only for transport failures. A rejected token is (false, nil).
*/
func (v *RecaptchaVerifier) Verify(ctx context.Context, response string) (bool, error) {
	if !v.Enabled() {
		return true, nil
	}
	if response == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", response)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("captcha_request_build_failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha_siteverify_failed: %w", err)
	}
	defer resp.Body.Close()

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("captcha_response_decode_failed: %w", err)
	}
	return body.Success && body.Score >= v.minScore, nil
}
