// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config centralizes configuration management for the Kanso API.

Configuration is loaded from environment variables using struct tags, with
sensible defaults for local development. Secrets (database passwords, signing
keys, reCAPTCHA secrets) have no defaults and must be provided explicitly.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config aggregates all runtime configuration for the API process.
type Config struct {
	App       App
	HTTP      HTTP
	Postgres  Postgres
	Redis     Redis
	Token     Token
	Session   Session
	Login     Login
	Recaptcha Recaptcha
	Totp      Totp
}

// App holds process-level settings.
type App struct {
	// Env is the deployment environment: "dev", "staging", "prod".
	Env string `env:"APP_ENV" envDefault:"dev"`
	// LogLevel is the minimum slog level: "debug", "info", "warn", "error".
	LogLevel string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

// HTTP holds server listener settings.
type HTTP struct {
	Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	// RateLimitRPS is the per-client steady request rate. Zero disables limiting.
	RateLimitRPS float64 `env:"HTTP_RATE_LIMIT_RPS" envDefault:"20"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `env:"HTTP_RATE_LIMIT_BURST" envDefault:"40"`
	// CORSOrigins lists allowed origins, comma separated. "*" allows all.
	CORSOrigins []string `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Addr returns the host:port listen address.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Postgres holds connection pool settings for the primary database.
type Postgres struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"kanso"`
	Password string `env:"POSTGRES_PASSWORD,required"`
	Database string `env:"POSTGRES_DB" envDefault:"kanso"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	// MigrationsPath is a file:// URL pointing at the migration directory.
	MigrationsPath string `env:"POSTGRES_MIGRATIONS" envDefault:"file://data/migrations"`
}

// DSN builds the pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// Redis holds connection settings for the volatile token store.
type Redis struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Addr returns the host:port Redis address.
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Token holds access token signing settings.
type Token struct {
	// PrivateKeyPath points at the RSA private key (PKCS#1 or PKCS#8 PEM)
	// used to sign access tokens.
	PrivateKeyPath string `env:"TOKEN_PRIVATE_KEY,required"`
	// PublicKeyPath points at the matching RSA public key used to verify.
	PublicKeyPath string `env:"TOKEN_PUBLIC_KEY,required"`
	// Issuer is the iss claim stamped on every token.
	Issuer string `env:"TOKEN_ISSUER" envDefault:"kanso"`
	// AccessTTL bounds both access token validity and the revocation
	// cache entry lifetime.
	AccessTTL time.Duration `env:"TOKEN_ACCESS_TTL" envDefault:"15m"`
	// InternalTTL is the validity of service-to-service tokens.
	InternalTTL time.Duration `env:"TOKEN_INTERNAL_TTL" envDefault:"1m"`
}

// Session holds refresh token and session lifecycle settings.
type Session struct {
	// RefreshTTL is how long a session may sit idle before its refresh
	// token expires. Each successful refresh restarts the window.
	RefreshTTL time.Duration `env:"SESSION_REFRESH_TTL" envDefault:"720h"`
	// RefreshTokenLength is the character length of generated refresh tokens.
	RefreshTokenLength int `env:"SESSION_REFRESH_TOKEN_LENGTH" envDefault:"64"`
}

// Login holds failed-login escalation settings.
type Login struct {
	// FailsBeforeCaptcha is how many consecutive failures a login name
	// tolerates before a CAPTCHA becomes mandatory. Zero requires a
	// CAPTCHA on every attempt.
	FailsBeforeCaptcha int `env:"LOGIN_FAILS_BEFORE_CAPTCHA" envDefault:"3"`
	// FailedAuthWindow is the TTL of the failure counter. The window is
	// anchored at the first failure and is not extended by later ones.
	FailedAuthWindow time.Duration `env:"LOGIN_FAILED_AUTH_WINDOW" envDefault:"1h"`
}

// Recaptcha holds Google reCAPTCHA v3 verification settings.
type Recaptcha struct {
	// Secret is the site secret. Empty disables verification entirely:
	// every challenge passes and no CAPTCHA is ever demanded.
	Secret string `env:"RECAPTCHA_SECRET" envDefault:""`
	// SiteKey is returned to clients so they can render the widget.
	SiteKey string `env:"RECAPTCHA_SITE_KEY" envDefault:""`
	// MinScore is the minimum v3 score accepted as human.
	MinScore float64 `env:"RECAPTCHA_MIN_SCORE" envDefault:"0.5"`
	// Endpoint is the siteverify URL, overridable for testing.
	Endpoint string `env:"RECAPTCHA_ENDPOINT" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
}

// Totp holds TOTP second-factor settings.
type Totp struct {
	// SecretLength is the raw byte length of generated TOTP secrets
	// before base32 encoding.
	SecretLength int `env:"TOTP_SECRET_LENGTH" envDefault:"24"`
	// Issuer is the label shown in authenticator apps.
	Issuer string `env:"TOTP_ISSUER" envDefault:"Kanso"`
}

/*
Load reads configuration from the environment.

Returns:
  - *Config: The populated configuration.
  - error: If a required variable is missing or a value cannot be parsed.
*/
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config_load_failed: %w", err)
	}
	return cfg, nil
}
