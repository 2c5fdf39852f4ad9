// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/ctxutil"
	"github.com/taibuivan/kanso/internal/platform/middleware"
	"github.com/taibuivan/kanso/internal/platform/request"
	"github.com/taibuivan/kanso/internal/platform/respond"
	"github.com/taibuivan/kanso/internal/platform/validate"
	"github.com/taibuivan/kanso/internal/users/auth"
)

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	service      *Service
	cookieSecure bool
	refreshTTL   time.Duration
}

// NewHandler creates the session HTTP handler. cookieSecure should be false
// only in local development without TLS.
func NewHandler(service *Service, cookieSecure bool, refreshTTL time.Duration) *Handler {
	return &Handler{service: service, cookieSecure: cookieSecure, refreshTTL: refreshTTL}
}

// Routes mounts the session endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/auth/logout", h.logout)
		r.Post("/auth/logout-everywhere", h.logoutEverywhere)
		r.Get("/auth/session", h.getCurrent)
		r.Get("/auth/sessions", h.listSessions)
		r.Delete("/auth/sessions/{sessionID}", h.deleteSession)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/users/{userID}/impersonate", h.impersonate)
	})
}

// # DTOs

type loginRequest struct {
	NameOrEmail     string  `json:"name_or_email"`
	Password        string  `json:"password"`
	DeviceName      *string `json:"device_name"`
	TotpCode        string  `json:"totp_code"`
	RecoveryCode    string  `json:"recovery_code"`
	CaptchaResponse string  `json:"captcha_response"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	User         *auth.User    `json:"user"`
	Session      *auth.Session `json:"session"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
}

// # Handlers

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v := validate.New()
	v.Required("name_or_email", req.NameOrEmail)
	v.Required("password", req.Password)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	login, err := h.service.Login(r.Context(), LoginRequest{
		NameOrEmail: req.NameOrEmail,
		Password:    req.Password,
		DeviceName:  req.DeviceName,
		Mfa: auth.MfaChallenge{
			TotpCode:     req.TotpCode,
			RecoveryCode: req.RecoveryCode,
		},
		CaptchaResponse: req.CaptchaResponse,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.setRefreshCookie(w, login.RefreshToken)
	respond.Created(w, r, loginResponse{
		User:         login.User,
		Session:      login.Session,
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFrom(r)
	if token == "" {
		respond.Error(w, r, apperr.Unauthorized("Refresh token required"))
		return
	}

	login, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		h.clearRefreshCookie(w)
		respond.Error(w, r, err)
		return
	}

	h.setRefreshCookie(w, login.RefreshToken)
	respond.OK(w, r, loginResponse{
		User:         login.User,
		Session:      login.Session,
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), ctxutil.Authentication(r.Context())); err != nil {
		respond.Error(w, r, err)
		return
	}
	h.clearRefreshCookie(w)
	respond.NoContent(w, r)
}

func (h *Handler) logoutEverywhere(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.LogoutEverywhere(r.Context(), ctxutil.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	h.clearRefreshCookie(w)
	respond.OK(w, r, map[string]int64{"sessions_terminated": deleted})
}

func (h *Handler) getCurrent(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetCurrent(r.Context(), ctxutil.Authentication(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, session)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListByUser(r.Context(), ctxutil.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*auth.Session{}
	}
	respond.OK(w, r, sessions)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), ctxutil.UserID(r.Context()), request.URLParam(r, "sessionID"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *Handler) impersonate(w http.ResponseWriter, r *http.Request) {
	login, err := h.service.Impersonate(r.Context(), ctxutil.Authentication(r.Context()), request.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, r, loginResponse{
		User:         login.User,
		Session:      login.Session,
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
}

// # Cookie plumbing

// refreshTokenFrom prefers the request body and falls back to the browser
// cookie, so both API clients and the web frontend can refresh.
func (h *Handler) refreshTokenFrom(r *http.Request) string {
	var req refreshRequest
	if err := request.DecodeJSON(r, &req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(constants.CookieRefreshToken); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.CookieRefreshToken,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.CookieRefreshToken,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
