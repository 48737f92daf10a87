// Package i18n holds the user-facing API messages in French (default) and English.
package i18n

import (
	"context"
	"strings"
)

type ctxKey struct{}

const DefaultLang = "fr"

var messages = map[string]map[string]string{
	"fr": {
		"required":               "Requis",
		"invalid_json":           "Corps de requête invalide",
		"token_missing":          "Token manquant",
		"token_invalid":          "Token invalide ou expiré",
		"admin_required":         "Accès refusé - admin requis",
		"user_not_found":         "Utilisateur non trouvé",
		"wrong_password":         "Mot de passe incorrect",
		"server_error":           "Erreur serveur",
		"credentials_required":   "Nom d'utilisateur et mot de passe sont requis.",
		"username_exists":        "Ce nom d'utilisateur existe déjà.",
		"username_taken":         "Ce nom d'utilisateur est déjà utilisé par un autre compte",
		"user_created":           "Utilisateur créé avec succès",
		"user_updated":           "Utilisateur modifié avec succès",
		"user_deleted":           "Utilisateur supprimé avec succès",
		"forbidden_profile":      "Vous n'avez pas les permissions pour modifier ce profil",
		"forbidden_role":         "Vous n'avez pas les permissions pour modifier les rôles utilisateurs",
		"last_admin":             "Impossible de supprimer le dernier administrateur du système",
		"invalid_id":             "Identifiant invalide",
		"invalid_fields":         "Champs invalides",
		"missing_fields":         "Champs obligatoires manquants",
		"letter_created":         "Lettre enregistrée avec succès",
		"letter_updated":         "Délibération modifiée avec succès",
		"letter_not_found":       "Délibération non trouvée",
		"lookup_params_required": "Année et numéro de délibération sont requis",
		"invalid_content":        "Contenu de délibération invalide",
		"invalid_status":         "Statut de délibération invalide",
		"fk_user_missing":        "L'utilisateur spécifié n'existe pas",
		"bad_format":             "Format de données incorrect",
		"letter_duplicate":       "Une lettre avec ce numéro existe déjà",
		"user_referenced":        "Utilisateur référencé par des délibérations",
		"render_failed":          "Échec de la génération du PDF",
		"method_not_allowed":     "Méthode non autorisée",
	},
	"en": {
		"required":               "Required",
		"invalid_json":           "Invalid request body",
		"token_missing":          "Missing token",
		"token_invalid":          "Invalid or expired token",
		"admin_required":         "Access denied - admin required",
		"user_not_found":         "User not found",
		"wrong_password":         "Wrong password",
		"server_error":           "Server error",
		"credentials_required":   "Username and password are required.",
		"username_exists":        "This username already exists.",
		"username_taken":         "This username is already used by another account",
		"user_created":           "User created",
		"user_updated":           "User updated",
		"user_deleted":           "User deleted",
		"forbidden_profile":      "You are not allowed to edit this profile",
		"forbidden_role":         "You are not allowed to change user roles",
		"last_admin":             "Cannot remove the last administrator",
		"invalid_id":             "Invalid identifier",
		"invalid_fields":         "Invalid fields",
		"missing_fields":         "Missing required fields",
		"letter_created":         "Letter saved",
		"letter_updated":         "Deliberation updated",
		"letter_not_found":       "Deliberation not found",
		"lookup_params_required": "Year and deliberation number are required",
		"invalid_content":        "Invalid deliberation content",
		"invalid_status":         "Invalid deliberation status",
		"fk_user_missing":        "The given user does not exist",
		"bad_format":             "Incorrect data format",
		"letter_duplicate":       "A letter with this number already exists",
		"user_referenced":        "User is referenced by deliberations",
		"render_failed":          "PDF generation failed",
		"method_not_allowed":     "Method not allowed",
	},
}

// T translates code into lang. Unknown languages fall back to French and
// unknown codes are returned unchanged.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the request language, or the default.
func LangFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
