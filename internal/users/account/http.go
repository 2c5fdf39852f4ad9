// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kanso/internal/platform/ctxutil"
	"github.com/taibuivan/kanso/internal/platform/middleware"
	"github.com/taibuivan/kanso/internal/platform/request"
	"github.com/taibuivan/kanso/internal/platform/respond"
	"github.com/taibuivan/kanso/internal/platform/validate"
	"github.com/taibuivan/kanso/pkg/pagination"
)

// Handler exposes account management over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the public account endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/users", h.register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/users/me", h.getSelf)
		r.Put("/users/me/password", h.changePassword)
		r.Get("/users/{userID}", h.get)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/users", h.list)
		r.Put("/users/{userID}/admin", h.setAdmin)
		r.Put("/users/{userID}/enabled", h.setEnabled)
		r.Put("/users/{userID}/email-verified", h.setEmailVerified)
		r.Delete("/users/{userID}", h.delete)
	})
}

// InternalRoutes mounts the service-to-service endpoints, guarded by
// internal tokens instead of user authentication.
func (h *Handler) InternalRoutes(r chi.Router, verifier middleware.InternalVerifier) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireInternal(verifier, "auth"))
		r.Get("/internal/users/{userID}", h.getInternal)
	})
}

// # DTOs

type registerRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	DeviceName *string `json:"device_name"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type flagRequest struct {
	Value bool `json:"value"`
}

// # Handlers

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v := validate.New()
	v.Required("name", req.Name)
	v.Name("name", req.Name)
	v.Required("email", req.Email)
	v.Email("email", req.Email)
	v.Password("password", req.Password)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	login, err := h.service.Register(r.Context(), RegisterRequest{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, r, login)
}

func (h *Handler) getSelf(w http.ResponseWriter, r *http.Request) {
	caller := ctxutil.Authentication(r.Context())
	user, err := h.service.Get(r.Context(), caller, caller.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, user)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	caller := ctxutil.Authentication(r.Context())
	user, err := h.service.Get(r.Context(), caller, request.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, user)
}

func (h *Handler) getInternal(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetInternal(r.Context(), request.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, user)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, page)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	v := validate.New()
	v.Required("old_password", req.OldPassword)
	v.Password("new_password", req.NewPassword)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	caller := ctxutil.Authentication(r.Context())
	if err := h.service.ChangePassword(r.Context(), caller, req.OldPassword, req.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.service.SetAdmin)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.service.SetEnabled)
}

func (h *Handler) setEmailVerified(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.service.SetEmailVerified)
}

func (h *Handler) setFlag(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID string, value bool) error) {
	var req flagRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := apply(r.Context(), request.URLParam(r, "userID"), req.Value); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), request.URLParam(r, "userID")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w, r)
}
