package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/gate"
	"github.com/diewo77/go-deliberations/httpx"
	"github.com/diewo77/go-deliberations/i18n"
	"github.com/diewo77/go-deliberations/internal/policy"
	"github.com/diewo77/go-deliberations/internal/services"
)

type UserHandler struct {
	users  *services.UserService
	gate   *gate.Gate[*auth.Actor]
	issuer *auth.Issuer
	log    *slog.Logger
}

func NewUserHandler(users *services.UserService, g *gate.Gate[*auth.Actor], issuer *auth.Issuer, log *slog.Logger) *UserHandler {
	return &UserHandler{users: users, gate: g, issuer: issuer, log: log}
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	switch string(data) {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		if n, err := strconv.ParseFloat(string(data), 64); err == nil {
			*b = n != 0
			return nil
		}
		return errors.New("expected a boolean")
	}
	return nil
}

type userRequest struct {
	Username    *string   `json:"username"`
	Password    *string   `json:"password"`
	Nom         string    `json:"nom"`
	Prenom      string    `json:"prenom"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	IsAdmin     *flexBool `json:"isAdmin"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), &a, gate.ActionList, policy.ResourceUser, nil); err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	users, err := h.users.List(r.Context(), a)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), &a, gate.ActionCreate, policy.ResourceUser, nil); err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	var req userRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.CreateUserInput{
		Username:    deref(req.Username),
		Password:    deref(req.Password),
		Nom:         req.Nom,
		Prenom:      req.Prenom,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		IsAdmin:     req.IsAdmin != nil && bool(*req.IsAdmin),
	}
	u, err := h.users.Create(r.Context(), a, in)
	if errors.Is(err, services.ErrUsernameTaken) {
		httpx.JSONError(w, r, http.StatusConflict, "username_exists", nil)
		return
	}
	if err != nil {
		writeError(w, r, h.log, err, userWriteCodes)
		return
	}
	httpx.Success(w, http.StatusCreated, map[string]any{
		"message": i18n.T(i18n.LangFromContext(r.Context()), "user_created"),
		"userId":  u.ID,
		"user":    u,
	})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req userRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.UpdateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		Nom:         req.Nom,
		Prenom:      req.Prenom,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if req.IsAdmin != nil {
		v := bool(*req.IsAdmin)
		in.IsAdmin = &v
	}
	res, err := h.users.Update(r.Context(), a, id, in)
	if err != nil {
		writeError(w, r, h.log, err, userWriteCodes)
		return
	}

	body := map[string]any{
		"message": i18n.T(i18n.LangFromContext(r.Context()), "user_updated"),
		"user":    res.User,
	}
	if res.ReissueToken {
		// The role in the new credential is the caller's, never the request's.
		token, err := h.issuer.Issue(auth.Actor{ID: a.ID, Username: res.User.Username, IsAdmin: a.IsAdmin})
		if err != nil {
			writeError(w, r, h.log, err, nil)
			return
		}
		body["newToken"] = token
	}
	httpx.Success(w, http.StatusOK, body)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), &a, gate.ActionDelete, policy.ResourceUser, id); err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	if err := h.users.Delete(r.Context(), a, id); err != nil {
		writeError(w, r, h.log, err, userWriteCodes)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"message": i18n.T(i18n.LangFromContext(r.Context()), "user_deleted"),
	})
}
