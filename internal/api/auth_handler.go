package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/auth"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

type AuthHandler struct {
	Service *auth.AuthService
	Logger  *logger.Logger
}

func NewAuthHandler(service *auth.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Service: service, Logger: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignupCustomer)
		r.Post("/signup/owner", h.SignupOwner)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Patch("/me", h.UpdateProfile)
			r.Post("/me/password", h.ChangePassword)
		})
	})
}

func (h *AuthHandler) SignupCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "SignupCustomer", err)
		return
	}
	u, err := h.Service.SignupCustomer(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "SignupCustomer", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Signup successful", u)
}

func (h *AuthHandler) SignupOwner(w http.ResponseWriter, r *http.Request) {
	var req models.OwnerSignupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "SignupOwner", err)
		return
	}
	u, v, err := h.Service.SignupOwner(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "SignupOwner", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Owner signup successful", map[string]interface{}{
		"user":       u,
		"restaurant": v,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoginID  string `json:"userId"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	resp, err := h.Service.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), auth.SessionIDFromContext(r.Context())); err != nil {
		writeError(w, h.Logger, "Logout", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "Current user", auth.UserFromContext(r.Context()))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, h.Logger, "UpdateProfile", err)
		return
	}
	u := auth.UserFromContext(r.Context())
	updated, err := h.Service.UpdateProfile(r.Context(), u.ID, patch)
	if err != nil {
		writeError(w, h.Logger, "UpdateProfile", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated", updated)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "ChangePassword", err)
		return
	}
	u := auth.UserFromContext(r.Context())
	if err := h.Service.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, h.Logger, "ChangePassword", err)
		return
	}
	h.Logger.LogSecurity("PASSWORD_CHANGED", fmt.Sprintf("user %s", u.LoginID))
	writeSuccess(w, http.StatusOK, "Password changed", nil)
}
