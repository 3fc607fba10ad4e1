// Package web assembles the HTTP surface: middleware chain and routes.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shindakun/urlshort/internal/auth"
	"github.com/shindakun/urlshort/internal/config"
	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/web/handlers"
	"github.com/shindakun/urlshort/internal/web/middleware"
)

// NewRouter wires middleware and routes. metricsHandler may be nil.
func NewRouter(cfg *config.Config, h *handlers.Handlers, sessionManager *auth.SessionManager, metricsHandler http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.MaxBytesMiddleware(cfg.Server.Security.MaxRequestBytes))

	// Machine endpoints, no CSRF
	r.Get("/healthz", h.Healthz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	r.Handle("/static/*", h.ServeStatic())

	r.Group(func(r chi.Router) {
		if cfg.Server.Security.CSRFEnabled {
			r.Use(middleware.CSRFProtection(
				[]byte(cfg.Session.Secret),
				cfg.SecureCookies(),
				cfg.Server.Security.CSRFFieldName,
				logger,
			))
		}

		r.Get("/", h.Index)
		r.Get(models.LoginPath, h.LoginPage)
		r.Post(models.LoginPath, h.LoginSubmit)
		r.Post(models.LoginPath+"/validate", h.ValidateLogin)
		r.Get("/logout", h.Logout)

		// Linked from the login page, served by other parts of the product
		r.HandleFunc(models.ForgetPasswordPath, h.NotFound)
		r.HandleFunc(models.RegisterPath, h.NotFound)

		r.With(middleware.RequireAuth(sessionManager)).Get("/{username}", h.Profile)
	})

	r.NotFound(h.NotFound)

	return r
}
