package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/models"
	"catalog-engine-go/internal/storefront"
)

// IdempotencyKeyHeader lets a client retry offer creation safely. Requests
// repeating a key get the offer created by the first one.
const IdempotencyKeyHeader = "Idempotency-Key"

// OfferHandler creates special offers and prices deals
type OfferHandler struct {
	storefront storefront.Interface
	logger     *zap.Logger
	now        func() time.Time
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(sf storefront.Interface, logger *zap.Logger) *OfferHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferHandler{
		storefront: sf,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleCreate handles POST /api/v1/products/{product_id}/offers
func (h *OfferHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	product, err := domain.ParseProductID(chi.URLParam(r, "product_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	var req models.SpecialOfferRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode special offer request", zap.Error(err))
		respondWithDecodeError(w, h.logger, err, "invalid request body")
		return
	}

	offer := deal.SpecialOffer{
		Product:          product,
		Deal:             req.Deal,
		MembersOnly:      req.MembersOnly,
		LimitPerCustomer: req.LimitPerCustomer,
		ValidFrom:        h.now().UTC().Truncate(time.Second),
		ValidUntil:       req.ValidUntil,
	}
	if req.ValidFrom != nil {
		offer.ValidFrom = *req.ValidFrom
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		created, err := h.storefront.CreateSpecialOffer(r.Context(), offer)
		if err != nil {
			respondWithStorefrontError(w, h.logger, "failed to create special offer", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, created)
		return
	}

	created, replayed, err := h.storefront.CreateSpecialOfferOnce(r.Context(), key, offer)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to create special offer", err)
		return
	}
	if replayed {
		respondWithJSON(w, http.StatusOK, created)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// HandleQuote handles POST /api/v1/deals/quote
func (h *OfferHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req storefront.DealQuoteRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode deal quote request", zap.Error(err))
		respondWithDecodeError(w, h.logger, err, "invalid request body")
		return
	}

	quote, err := h.storefront.QuoteDeal(req)
	if err != nil {
		respondWithStorefrontError(w, h.logger, "failed to quote deal", err)
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}

// respondWithDecodeError reports body decode errors. A deal that fails to
// decode carries its own reason; anything else gets fallback.
func respondWithDecodeError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	if statusFor(err) == http.StatusBadRequest {
		respondWithStorefrontError(w, logger, fallback, err)
		return
	}
	respondWithError(w, http.StatusBadRequest, fallback)
}
