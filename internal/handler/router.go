package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/truetone/api/internal/middleware"
	"github.com/truetone/api/internal/model"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string

	Gatherer    prometheus.Gatherer     // Serves /metrics when set
	HTTPMetrics *middleware.HTTPMetrics // Optional

	Tokens      middleware.TokenValidator
	Profiles    middleware.ProfileLookup
	RateLimiter *middleware.RateLimiter      // Optional: login and signup
	Idempotency *middleware.IdempotencyStore // Optional: catalog submissions

	Health      *HealthHandler
	Auth        *AuthHandler
	Signup      *SignupHandler
	Catalog     *CatalogHandler
	Invitations *InvitationHandler

	// Media serves uploaded photos under /media/ for the memory backend
	Media http.Handler
}

// NewRouter builds the chi router with global middleware and all routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(cfg.Logger),
		middleware.Recovery,
		middleware.CORS(cfg.AllowedOrigins),
	)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, model.NewNotFoundError("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, &model.ProblemDetails{
			Type:   model.ErrorType("method-not-allowed"),
			Title:  "Method Not Allowed",
			Status: http.StatusMethodNotAllowed,
			Detail: r.Method + " is not supported on this route",
			Code:   model.ErrCodeInvalidInput,
		})
	})

	r.Get("/health", cfg.Health.Health)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Media != nil {
		r.Mount("/media", http.StripPrefix("/media", cfg.Media))
	}

	limited := func(r chi.Router) chi.Router { return r }
	if cfg.RateLimiter != nil {
		limited = func(r chi.Router) chi.Router { return r.With(middleware.RateLimit(cfg.RateLimiter)) }
	}
	auth := middleware.Auth(cfg.Tokens)

	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Get("/rating-schema", cfg.Catalog.RatingSchema)
		r.Get("/saxophones", cfg.Catalog.List)
		r.Get("/saxophones/{id}", cfg.Catalog.Get)
		r.Get("/signup/{token}", cfg.Signup.Preview)
		limited(r).Post("/signup", cfg.Signup.Signup)
		limited(r).Post("/auth/login", cfg.Auth.Login)
		r.Post("/auth/refresh", cfg.Auth.Refresh)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/auth/logout", cfg.Auth.Logout)
			r.Get("/me", cfg.Auth.Me)

			r.Group(func(r chi.Router) {
				if cfg.Idempotency != nil {
					r.Use(middleware.Idempotency(cfg.Idempotency))
				}
				r.Post("/saxophones", cfg.Catalog.Create)
				r.Post("/saxophones/{id}/reviews", cfg.Catalog.AddReview)
			})

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(cfg.Profiles))
				r.Post("/invitations", cfg.Invitations.Create)
				r.Get("/invitations", cfg.Invitations.List)
				r.Get("/invitations/{id}", cfg.Invitations.Get)
				r.Post("/invitations/{id}/resend", cfg.Invitations.Resend)
			})
		})
	})

	return r
}
