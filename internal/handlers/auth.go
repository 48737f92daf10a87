package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/httpx"
	"github.com/diewo77/go-deliberations/internal/models"
	"github.com/diewo77/go-deliberations/internal/services"
)

type AuthHandler struct {
	users  *services.UserService
	issuer *auth.Issuer
	log    *slog.Logger
}

func NewAuthHandler(users *services.UserService, issuer *auth.Issuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func issueFor(iss *auth.Issuer, u *models.User) (string, error) {
	return iss.Issue(auth.Actor{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin})
}

// Login exchanges a username and password for a bearer credential.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	u, err := h.users.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		httpx.JSONError(w, r, http.StatusUnauthorized, "user_not_found", nil)
		return
	case errors.Is(err, auth.ErrWrongPassword):
		httpx.JSONError(w, r, http.StatusUnauthorized, "wrong_password", nil)
		return
	case err != nil:
		writeError(w, r, h.log, err, nil)
		return
	}
	token, err := issueFor(h.issuer, u)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	h.log.Info("login", "user_id", u.ID)
	httpx.Success(w, http.StatusOK, map[string]any{"token": token, "user": u})
}

// Me returns the caller's own profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), a.ID)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"user": u})
}
