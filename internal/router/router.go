package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/regfence-dev/regfence/internal/middleware"
	"github.com/regfence-dev/regfence/internal/middleware/metrics"
	"github.com/regfence-dev/regfence/internal/setup"
)

// New creates and configures the router with all the routes.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders(deps.Config.Public.SecureCookies))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", h.Validate)
		r.Get("/form_token", h.FormToken)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(authMw.AdminOnly())

				r.Get("/bans", h.Bans)
				r.Post("/bans", h.CreateBan)
				r.Get("/bans/{ip}", h.GetBan)
				r.Delete("/bans/{ip}", h.DeleteBan)

				r.Get("/lists/{list}", h.ListEntries)
				r.Post("/lists/{list}", h.AddListEntry)
				r.Delete("/lists/{list}/{entry}", h.RemoveListEntry)

				r.Get("/audit", h.Audit)
				r.Post("/report", h.Report)
			})
		})
	})

	return r
}
