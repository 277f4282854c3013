package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catalog-engine-go/internal/api/handlers"
	"catalog-engine-go/internal/api/middleware"
	"catalog-engine-go/internal/storefront"
)

// NewRouter creates a new Chi router with all routes and middleware configured
func NewRouter(
	sf storefront.Interface,
	redis handlers.Pinger,
	postgres handlers.Pinger,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Apply middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger, "/api/v1/health", "/api/v1/ready"))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(redis, postgres, logger)
	categoryHandler := handlers.NewCategoryHandler(sf, logger)
	productHandler := handlers.NewProductHandler(sf, logger)
	offerHandler := handlers.NewOfferHandler(sf, logger)
	customerHandler := handlers.NewCustomerHandler(sf, logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Categories
		r.Get("/categories", categoryHandler.HandleList)
		r.Delete("/categories/cache", categoryHandler.HandleInvalidate)

		// Products
		r.Get("/products/newest", productHandler.HandleNewest)
		r.Get("/products/discounts", productHandler.HandleDiscounts)
		r.Get("/products/{product_id}", productHandler.HandleInfo)
		r.Get("/products/{product_id}/reviews", productHandler.HandleReviews)
		r.Post("/products/{product_id}/offers", offerHandler.HandleCreate)

		// Deals
		r.Post("/deals/quote", offerHandler.HandleQuote)

		// Customers
		r.Get("/customers/{customer_id}/orders", customerHandler.HandleOrders)
		r.Post("/customers/{customer_id}/cart/quote", customerHandler.HandleCartQuote)
		r.Get("/quotes/{quote_id}", customerHandler.HandleSavedQuote)

		// Health and readiness endpoints
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/ready", healthHandler.HandleReady)

		// Metrics endpoint
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	})

	return r
}
