package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"catalog-engine-go/internal/catalog"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/models"
	"catalog-engine-go/internal/storefront"
)

// ProductHandler serves product listings, product pages and reviews
type ProductHandler struct {
	storefront storefront.Interface
	logger     *zap.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(sf storefront.Interface, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		storefront: sf,
		logger:     logger,
	}
}

type listFunc func(ctx context.Context, viewer *domain.CustomerID, page storefront.Page) ([]catalog.ProductOverview, error)

// HandleNewest handles GET /api/v1/products/newest
func (h *ProductHandler) HandleNewest(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "newest", h.storefront.NewestProducts)
}

// HandleDiscounts handles GET /api/v1/products/discounts
func (h *ProductHandler) HandleDiscounts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "discounts", h.storefront.DiscountedProducts)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, listing string, fn listFunc) {
	customer, err := viewer(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid "+CustomerHeader+" header")
		return
	}
	p, err := page(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := fn(r.Context(), customer, p)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to list products", err)
		return
	}

	h.logger.Debug("listed products",
		zap.String("listing", listing),
		zap.Int("count", len(products)),
	)
	respondWithJSON(w, http.StatusOK, models.ProductsResponse{
		Products: products,
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
}

// HandleInfo handles GET /api/v1/products/{product_id}
func (h *ProductHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	customer, err := viewer(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid "+CustomerHeader+" header")
		return
	}
	product, err := domain.ParseProductID(chi.URLParam(r, "product_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	info, err := h.storefront.ProductInfo(r.Context(), customer, product)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to load product", err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// HandleReviews handles GET /api/v1/products/{product_id}/reviews
func (h *ProductHandler) HandleReviews(w http.ResponseWriter, r *http.Request) {
	customer, err := viewer(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid "+CustomerHeader+" header")
		return
	}
	product, err := domain.ParseProductID(chi.URLParam(r, "product_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product_id")
		return
	}
	p, err := page(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.storefront.ProductReviews(r.Context(), customer, product, p)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to load reviews", err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}
