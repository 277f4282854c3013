package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"catalog-engine-go/internal/datastore"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/models"
	"catalog-engine-go/internal/storefront"
)

// CustomerHeader carries the signed-in customer, set by the gateway in
// front of the API. Absent for anonymous viewers.
const CustomerHeader = "X-Customer-ID"

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondWithError sends an error JSON response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, models.ErrorResponse{Error: message})
}

// respondWithStorefrontError maps a storefront error to a status code.
// Client errors echo the error text; server errors are logged and hidden.
func respondWithStorefrontError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		logger.Debug(msg, zap.Error(err), zap.Int("status", status))
		respondWithError(w, status, err.Error())
		return
	}

	logger.Error(msg, zap.Error(err))
	if errors.Is(err, storefront.ErrInconsistentData) {
		respondWithError(w, status, "inconsistent catalog data")
		return
	}
	respondWithError(w, status, "internal server error")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storefront.ErrInvalidPage),
		errors.Is(err, storefront.ErrInvalidQuote),
		errors.Is(err, deal.ErrOutOfRange),
		errors.Is(err, deal.ErrInvalidVariant),
		errors.Is(err, deal.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, deal.ErrZeroPrice),
		errors.Is(err, deal.ErrNoDiscount),
		errors.Is(err, storefront.ErrKeyReused):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datastore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, datastore.ErrOfferOverlap),
		errors.Is(err, datastore.ErrKeyInFlight):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// viewer returns the customer named by CustomerHeader, or nil.
func viewer(r *http.Request) (*domain.CustomerID, error) {
	raw := r.Header.Get(CustomerHeader)
	if raw == "" {
		return nil, nil
	}
	id, err := domain.ParseCustomerID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// page reads the limit and offset query parameters. Missing values are zero.
func page(r *http.Request) (storefront.Page, error) {
	var p storefront.Page
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("limit must be an integer")
		}
		p.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("offset must be an integer")
		}
		p.Offset = n
	}
	return p, nil
}
