package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/models"
	"catalog-engine-go/internal/storefront"
)

// CustomerHandler serves a customer's orders and cart quotes
type CustomerHandler struct {
	storefront storefront.Interface
	logger     *zap.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(sf storefront.Interface, logger *zap.Logger) *CustomerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerHandler{
		storefront: sf,
		logger:     logger,
	}
}

// HandleOrders handles GET /api/v1/customers/{customer_id}/orders
func (h *CustomerHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	customer, err := domain.ParseCustomerID(chi.URLParam(r, "customer_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}
	p, err := page(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.storefront.Orders(r.Context(), customer, p)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to load orders", err)
		return
	}

	response := models.OrdersResponse{Orders: make([]models.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		response.Orders = append(response.Orders, models.OrderResponse{
			Order: o,
			Price: o.Price().StringFixed(2),
		})
	}
	respondWithJSON(w, http.StatusOK, response)
}

// HandleCartQuote handles POST /api/v1/customers/{customer_id}/cart/quote
func (h *CustomerHandler) HandleCartQuote(w http.ResponseWriter, r *http.Request) {
	customer, err := domain.ParseCustomerID(chi.URLParam(r, "customer_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}

	quote, err := h.storefront.QuoteCart(r.Context(), customer)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to quote cart", err)
		return
	}

	h.logger.Info("cart quoted",
		zap.Int32("customer", int32(customer)),
		zap.String("quote_id", quote.ID.String()),
		zap.String("total", quote.Total.StringFixed(2)),
	)
	respondWithJSON(w, http.StatusCreated, quote)
}

// HandleSavedQuote handles GET /api/v1/quotes/{quote_id}
func (h *CustomerHandler) HandleSavedQuote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "quote_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid quote_id")
		return
	}

	quote, err := h.storefront.SavedQuote(r.Context(), id)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to load quote", err)
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}
