package api

import (
	"log/slog"
	"net/http"

	"github.com/swamy3697/Shop-Mate/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Accounts  auth.AccountStore
	JWTSecret string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	token, err := auth.Login(r.Context(), h.Accounts, h.JWTSecret, req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		serviceError(w, r, err, "failed to log in")
		return
	}

	slog.Info("user logged in", "user", req.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		jsonError(w, http.StatusBadRequest, "current and new password required")
		return
	}

	if err := auth.ChangePassword(r.Context(), h.Accounts, req.CurrentPassword, req.NewPassword); err != nil {
		serviceError(w, r, err, "failed to update password")
		return
	}

	token, err := auth.IssueToken(r.Context(), h.Accounts, h.JWTSecret)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}
