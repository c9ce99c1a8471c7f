package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ozanyurtsever/shopcore/pkg/health"
	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/services/catalog/internal/service"
)

const roleAdmin = "admin"

// NewRouter creates a chi router with all catalog routes registered.
// Reads are public; writes require an admin token.
func NewRouter(
	catalogService *service.CatalogService,
	tokenValidator middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("catalog"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("catalog"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(catalogService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/{id}", productHandler.Get)
		r.Get("/{id}/price", productHandler.GetPrice)
		r.Get("/slug/{slug}", productHandler.GetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole(roleAdmin))

			r.Post("/", productHandler.Create)
			r.Put("/{id}", productHandler.Update)
		})
	})

	return r
}
