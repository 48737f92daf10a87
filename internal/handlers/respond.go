package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/gate"
	"github.com/diewo77/go-deliberations/httpx"
	"github.com/diewo77/go-deliberations/i18n"
	"github.com/diewo77/go-deliberations/internal/db"
	"github.com/diewo77/go-deliberations/internal/document"
	"github.com/diewo77/go-deliberations/internal/middleware"
	"github.com/diewo77/go-deliberations/internal/policy"
	"github.com/diewo77/go-deliberations/internal/services"
)

// persistenceCodes maps translated store failures to message codes.
type persistenceCodes map[db.Kind]string

var (
	letterWriteCodes = persistenceCodes{
		db.KindForeignKey: "fk_user_missing",
		db.KindTruncation: "bad_format",
		db.KindDuplicate:  "letter_duplicate",
	}
	userWriteCodes = persistenceCodes{
		db.KindForeignKey: "user_referenced",
		db.KindTruncation: "bad_format",
		db.KindDuplicate:  "username_taken",
	}
)

// writeError maps service, policy and store errors to JSON responses.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, codes persistenceCodes) {
	var (
		missing *services.MissingFieldsError
		fields  *services.FieldError
		content *document.ValidationError
	)
	switch {
	case errors.As(err, &missing):
		lang := i18n.LangFromContext(r.Context())
		msg := i18n.T(lang, "missing_fields") + ": " + strings.Join(missing.Fields, ", ")
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "missing_fields", msg, map[string]any{"fields": missing.Fields})
	case errors.As(err, &fields):
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_fields", fields.Fields)
	case errors.As(err, &content):
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_content", content.Problems)
	case errors.Is(err, services.ErrInvalidStatus):
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_status", nil)
	case errors.Is(err, services.ErrCredentialsRequired):
		httpx.JSONError(w, r, http.StatusBadRequest, "credentials_required", nil)
	case errors.Is(err, services.ErrUserNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "user_not_found", nil)
	case errors.Is(err, services.ErrLetterNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "letter_not_found", nil)
	case errors.Is(err, services.ErrUsernameTaken):
		httpx.JSONError(w, r, http.StatusConflict, "username_taken", nil)
	case errors.Is(err, policy.ErrLastAdmin):
		httpx.JSONError(w, r, http.StatusForbidden, "last_admin", nil)
	case errors.Is(err, policy.ErrRoleChange):
		httpx.JSONError(w, r, http.StatusForbidden, "forbidden_role", nil)
	case errors.Is(err, policy.ErrForeignProfile):
		httpx.JSONError(w, r, http.StatusForbidden, "forbidden_profile", nil)
	case errors.Is(err, gate.ErrUnauthenticated):
		httpx.JSONError(w, r, http.StatusUnauthorized, "token_missing", nil)
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, r, http.StatusForbidden, "admin_required", nil)
	default:
		code := "server_error"
		if c, ok := codes[db.KindOf(err)]; ok {
			code = c
		}
		log.Error("request failed",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"path", r.URL.Path,
			"code", code,
			"error", err,
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, code, nil)
	}
}

// pathID parses the {id} path segment; it writes a 400 and returns false on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}

// actor returns the authenticated actor. Routes are wrapped in
// auth.RequireAuth, so a missing actor only happens on misconfiguration.
func actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	a, ok := auth.ActorFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, r, http.StatusUnauthorized, "token_missing", nil)
	}
	return a, ok
}
