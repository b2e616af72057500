// Package router sets up all HTTP routes and middleware chains of the
// builder API. Routes are split into public, bearer-protected and
// admin-only groups.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dndbuilder/internal/handlers"
	"dndbuilder/internal/middleware"
)

// Handlers bundles the handler groups served by the API.
type Handlers struct {
	Auth    *handlers.Auth
	Themes  *handlers.Themes
	Content *handlers.Content
	Blocks  *handlers.Blocks
	Assets  *handlers.Assets
	Mail    *handlers.Mail
	Admin   *handlers.Admin
}

// Options carries the cross-cutting pieces of the middleware stack.
type Options struct {
	Tokens      middleware.TokenParser
	Metrics     *middleware.Metrics
	AuthLimiter *middleware.RateLimiter // nil disables rate limiting
	CORSOrigin  string
}

// New creates the configured chi router.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(opts.CORSOrigin))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// Account entry points, reachable without a token.
	r.Group(func(r chi.Router) {
		if opts.AuthLimiter != nil {
			r.Use(opts.AuthLimiter.Middleware)
		}
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
		r.Post("/auth/reset-password", h.Auth.ResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(opts.Tokens))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Get("/auth/profile", h.Auth.Profile)
		r.Put("/auth/profile", h.Auth.UpdateProfile)
		r.Put("/auth/regenerate-license-key", h.Auth.RegenerateLicenseKey)

		r.Route("/themes", func(r chi.Router) {
			r.Post("/", h.Themes.Create)
			r.Get("/", h.Themes.List)
			// Registered before /{id} so "active" is not parsed as an id.
			r.Get("/active", h.Themes.Active)
			r.Post("/active", h.Themes.SetActive)
			r.Put("/active", h.Themes.SetActive)
			r.Get("/{id}", h.Themes.Get)
			r.Get("/{id}/export", h.Themes.Export)
			r.Put("/{id}", h.Themes.Update)
			r.Delete("/{id}", h.Themes.Delete)
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/", h.Content.Get)
			r.Put("/", h.Content.Put)
			r.Delete("/", h.Content.Clear)
			r.Get("/export", h.Content.Export)
			r.Post("/import", h.Content.Import)
			r.Get("/styles.css", h.Content.StyleSheet)
			r.Get("/preview", h.Content.Preview)
		})

		r.Get("/blocks", h.Blocks.List)
		r.Get("/blocks/{type}", h.Blocks.Get)
		r.Get("/breakpoints", h.Blocks.Breakpoints)

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", h.Assets.Upload)
			r.Get("/", h.Assets.List)
			r.Delete("/{id}", h.Assets.Delete)
		})

		r.Route("/mail/templates", func(r chi.Router) {
			r.Get("/", h.Mail.Templates)
			r.Get("/{name}/content", h.Mail.Content)
			r.Get("/{name}/preview", h.Mail.Preview)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/users", h.Admin.Users)
			r.Delete("/users/{id}", h.Admin.DeleteUser)
		})
	})

	return r
}
