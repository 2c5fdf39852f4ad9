// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package api assembles the HTTP server: it wires stores, services and
// handlers together and owns the listener lifecycle.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kanso/internal/platform/config"
	"github.com/taibuivan/kanso/internal/platform/middleware"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/account"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/internal/users/mfa"
	"github.com/taibuivan/kanso/internal/users/session"
)

// Server is the assembled API process.
type Server struct {
	http    *http.Server
	limiter *middleware.RateLimiter
	cfg     *config.Config
	logger  *slog.Logger
}

/*
New wires the full service graph and returns a ready Server.

Parameters:
  - cfg: Process configuration.
  - logger: The root logger; components derive their own from it.
  - pool: The Postgres connection pool.
  - rdb: The Redis client for volatile authentication state.

Returns:
  - *Server: Ready to Run.
  - error: If the signing keys cannot be loaded.
*/
func New(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client) (*Server, error) {
	tokens, err := sec.NewTokenService(cfg.Token.PrivateKeyPath, cfg.Token.PublicKeyPath, cfg.Token.Issuer)
	if err != nil {
		return nil, fmt.Errorf("api_token_service_failed: %w", err)
	}

	// Stores.
	users := auth.NewPostgresUserStore(pool)
	sessions := auth.NewPostgresSessionStore(pool)
	revocations := auth.NewRedisRevocationStore(rdb)
	failed := auth.NewRedisFailedAuthStore(rdb)
	totps := mfa.NewPostgresTotpStore(pool)
	replays := mfa.NewRedisReplayStore(rdb)
	pending := mfa.NewRedisPendingStore(rdb)

	// Services.
	authService := auth.NewService(auth.Config{
		Users:              users,
		Sessions:           sessions,
		Access:             auth.NewAccessTokens(tokens, revocations, cfg.Token.AccessTTL),
		Refresh:            auth.NewRefreshTokens(cfg.Session.RefreshTokenLength),
		Failed:             failed,
		Captcha:            auth.NewRecaptchaVerifier(cfg.Recaptcha),
		FailsBeforeCaptcha: cfg.Login.FailsBeforeCaptcha,
		FailedWindow:       cfg.Login.FailedAuthWindow,
		RefreshTTL:         cfg.Session.RefreshTTL,
		Logger:             logger,
	})
	mfaService := mfa.NewService(totps, replays, pending, cfg.Totp.SecretLength, cfg.Totp.Issuer, logger)
	sessionService := session.NewService(users, sessions, authService, mfaService, logger)
	accountService := account.NewService(users, sessionService, authService, logger)

	// Router.
	cookieSecure := cfg.App.Env != "dev"
	router := chi.NewRouter()
	router.Use(middleware.PanicRecovery)
	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.CORS(cfg.HTTP.CORSOrigins))
	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	router.Use(limiter.Handler)
	router.Use(middleware.Authenticate(authService))

	router.Get("/healthz", health(pool, rdb))

	sessionHandler := session.NewHandler(sessionService, cookieSecure, cfg.Session.RefreshTTL)
	mfaHandler := mfa.NewHandler(mfaService)
	accountHandler := account.NewHandler(accountService)

	sessionHandler.Routes(router)
	mfaHandler.Routes(router)
	accountHandler.Routes(router)
	accountHandler.InternalRoutes(router, tokens)

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTP.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Run serves until ctx is canceled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", "addr", s.http.Addr, "env", s.cfg.App.Env)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api_serve_failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server_shutting_down")
	s.limiter.Close()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api_shutdown_failed: %w", err)
	}
	return nil
}
