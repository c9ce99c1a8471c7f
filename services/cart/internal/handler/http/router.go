package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ozanyurtsever/shopcore/pkg/health"
	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/services/cart/internal/service"
)

// NewRouter creates a chi router with all cart routes registered. Every
// cart route is scoped to the authenticated user.
func NewRouter(
	cartService *service.CartService,
	tokenValidator middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("cart"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("cart"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", cartHandler.Get)
		r.Delete("/", cartHandler.Clear)
		r.Post("/items", cartHandler.AddLine)
		r.Put("/items/{productID}", cartHandler.UpdateLine)
		r.Delete("/items/{productID}", cartHandler.RemoveLine)
	})

	return r
}
