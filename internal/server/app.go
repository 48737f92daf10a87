// Package server wires handlers, policies and middleware into the HTTP API.
package server

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/internal/handlers"
	"github.com/diewo77/go-deliberations/internal/middleware"
	"github.com/diewo77/go-deliberations/internal/policy"
	"github.com/diewo77/go-deliberations/internal/render"
	"github.com/diewo77/go-deliberations/internal/services"
)

// Deps are the collaborators the API needs.
type Deps struct {
	DB         *gorm.DB
	Log        *slog.Logger
	Issuer     *auth.Issuer
	Assets     render.Assets
	BcryptCost int
	// CORSOrigin is the single origin allowed to call the API from a browser.
	CORSOrigin string
}

// App is the root handler with every route configured.
type App struct {
	mux     *http.ServeMux
	handler http.Handler

	auth    *handlers.AuthHandler
	users   *handlers.UserHandler
	letters *handlers.LetterHandler
	health  *handlers.HealthHandler
}

// NewApp builds the services, handlers and middleware chain.
func NewApp(d Deps) *App {
	userSvc := services.NewUserService(d.DB, d.BcryptCost, d.Log)
	letterSvc := services.NewLetterService(d.DB, d.Log)
	g := policy.NewGate()

	app := &App{
		mux:     http.NewServeMux(),
		auth:    handlers.NewAuthHandler(userSvc, d.Issuer, d.Log),
		users:   handlers.NewUserHandler(userSvc, g, d.Issuer, d.Log),
		letters: handlers.NewLetterHandler(letterSvc, g, d.Assets, d.Log),
		health:  handlers.NewHealthHandler(d.DB),
	}
	app.setupRoutes()

	var h http.Handler = app.mux
	h = auth.Middleware(d.Issuer, userSvc.Exists)(h)
	h = middleware.Prefs(h)
	h = middleware.Recover(d.Log)(h)
	h = middleware.RequestLog(d.Log)(h)
	app.handler = corsFor(d.CORSOrigin).Handler(h)
	return app
}

func corsFor(origin string) *cors.Cors {
	origins := []string{}
	if origin != "" {
		origins = append(origins, origin)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	})
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func authed(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }
func admin(h http.HandlerFunc) http.Handler  { return auth.RequireAdmin(h) }

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /health", a.health.Live)
	a.mux.HandleFunc("GET /healthz", a.health.Ready)
	a.mux.HandleFunc("POST /login", a.auth.Login)

	// ─────────────────────────────────────────────────────────────────────────
	// Users
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /users/me", authed(a.auth.Me))
	a.mux.Handle("GET /users", authed(a.users.List))
	a.mux.Handle("POST /users", admin(a.users.Create))
	a.mux.Handle("PUT /users/{id}", authed(a.users.Update))
	a.mux.Handle("DELETE /users/{id}", admin(a.users.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Letters
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /letters", authed(a.letters.List))
	a.mux.Handle("POST /letters", admin(a.letters.Create))
	a.mux.Handle("POST /letters/preview", authed(a.letters.Preview))
	a.mux.Handle("GET /letters/{id}", authed(a.letters.Get))
	a.mux.Handle("GET /letters/{id}/pdf", authed(a.letters.PDF))
	a.mux.Handle("PUT /letters/{id}", admin(a.letters.Update))
	a.mux.Handle("GET /api/deliberations", authed(a.letters.Lookup))
}
