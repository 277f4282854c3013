package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"catalog-engine-go/internal/models"
	"catalog-engine-go/internal/storefront"
)

// CategoryHandler serves the category forest
type CategoryHandler struct {
	storefront storefront.Interface
	logger     *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(sf storefront.Interface, logger *zap.Logger) *CategoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryHandler{
		storefront: sf,
		logger:     logger,
	}
}

// HandleList handles GET /api/v1/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	forest, err := h.storefront.Categories(r.Context())
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to list categories", err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.CategoriesResponse{Categories: forest})
}

// HandleInvalidate handles DELETE /api/v1/categories/cache
func (h *CategoryHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.storefront.InvalidateCategories(r.Context()); err != nil {
		respondWithStorefrontError(w, h.logger, "failed to invalidate category cache", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
