package middleware

import (
	"net/http"

	"github.com/diewo77/go-deliberations/i18n"
)

func supported(lang string) bool { return lang == "fr" || lang == "en" }

// Prefs extracts the language preference (query > cookie > Accept-Language) and
// stores it in the request context for i18n. A query-provided language is
// persisted in a cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && supported(c.Value) {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
