package models

import (
	"time"

	"catalog-engine-go/internal/catalog"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/tree"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ReadyResponse struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CategoriesResponse struct {
	Categories []tree.CategoryTree `json:"categories"`
}

type ProductsResponse struct {
	Products []catalog.ProductOverview `json:"products"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
}

type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// OrderResponse adds the order total, which Order only computes.
type OrderResponse struct {
	catalog.Order
	Price string `json:"price"`
}

// SpecialOfferRequest creates an offer on the product named in the path.
// ValidFrom defaults to the time of the request.
type SpecialOfferRequest struct {
	Deal             deal.Deal  `json:"deal"`
	MembersOnly      bool       `json:"members_only"`
	LimitPerCustomer *uint32    `json:"limit_per_customer,omitempty"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`
}
