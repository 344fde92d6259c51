package handler

import (
	"net/http"

	"inventory-rest-api/internal/middleware"
	"inventory-rest-api/internal/service"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup handles POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, "Signup successful", user)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "Login successful", result)
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	if err := h.auth.Logout(r.Context(), identity); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "Logged out", nil)
}
