// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kanso/internal/platform/ctxutil"
	"github.com/taibuivan/kanso/internal/platform/middleware"
	"github.com/taibuivan/kanso/internal/platform/request"
	"github.com/taibuivan/kanso/internal/platform/respond"
	"github.com/taibuivan/kanso/internal/platform/validate"
)

// Handler exposes the MFA lifecycle over HTTP. All routes require an
// authenticated caller; they act on the caller's own account.
type Handler struct {
	service *Service
}

// NewHandler creates the MFA HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the MFA endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/auth/mfa", h.status)
		r.Post("/auth/mfa", h.initialize)
		r.Put("/auth/mfa", h.enable)
		r.Delete("/auth/mfa", h.disable)
	})
}

type enableRequest struct {
	TotpCode string `json:"totp_code"`
}

type enableResponse struct {
	RecoveryCode string `json:"recovery_code"`
}

type statusResponse struct {
	Enabled bool `json:"enabled"`
}

type initializeRequest struct {
	// AccountName is the label for the authenticator app entry. Optional;
	// defaults to the user ID.
	AccountName string `json:"account_name"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.service.Enabled(r.Context(), ctxutil.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, statusResponse{Enabled: enabled})
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	userID := ctxutil.UserID(r.Context())

	var req initializeRequest
	// The body is optional.
	_ = request.DecodeJSON(r, &req)
	accountName := req.AccountName
	if accountName == "" {
		accountName = userID
	}

	enrollment, err := h.service.Initialize(r.Context(), userID, accountName)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, r, enrollment)
}

func (h *Handler) enable(w http.ResponseWriter, r *http.Request) {
	var req enableRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v := validate.New()
	v.Required("totp_code", req.TotpCode)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	recoveryCode, err := h.service.Enable(r.Context(), ctxutil.UserID(r.Context()), req.TotpCode)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, enableResponse{RecoveryCode: recoveryCode})
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disable(r.Context(), ctxutil.UserID(r.Context())); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w, r)
}
