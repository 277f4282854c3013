package storefront

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/catalog"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

// Storefront errors
var (
	ErrInvalidPage      = errors.New("invalid page")
	ErrInvalidQuote     = errors.New("invalid quote request")
	ErrInconsistentData = errors.New("stored catalog data is inconsistent")
	ErrKeyReused        = errors.New("idempotency key was used for a different product")
)

// Store is the relational source of catalog rows.
type Store interface {
	CategoryRows(ctx context.Context) ([]tree.CategoryRow, error)
	NewestProducts(ctx context.Context, customer *domain.CustomerID, limit, offset int) ([]catalog.ProductRow, error)
	OfferedProducts(ctx context.Context, customer *domain.CustomerID) ([]catalog.ProductRow, error)
	ProductInfo(ctx context.Context, customer *domain.CustomerID, product domain.ProductID) (catalog.ProductInfoRow, error)
	ProductPrice(ctx context.Context, product domain.ProductID) (decimal.Decimal, error)
	ProductReviews(ctx context.Context, product domain.ProductID, viewer *domain.CustomerID, limit, offset int) (catalog.ReviewPage, error)
	CreateSpecialOffer(ctx context.Context, offer deal.SpecialOffer) (domain.SpecialOfferID, error)
	Purchases(ctx context.Context, customer domain.CustomerID, limit, offset int) ([]catalog.PurchaseRow, error)
	Cart(ctx context.Context, customer domain.CustomerID) ([]catalog.CartLine, bool, error)
}

// Cache holds assembled read models that are expensive to rebuild.
type Cache interface {
	CategoryForest(ctx context.Context) ([]tree.CategoryTree, bool, error)
	SetCategoryForest(ctx context.Context, forest []tree.CategoryTree) error
	InvalidateCategoryForest(ctx context.Context) error
	SaveQuote(ctx context.Context, q catalog.CartQuote, ttl time.Duration) error
	Quote(ctx context.Context, id string) (catalog.CartQuote, bool, error)
	ClaimOfferKey(ctx context.Context, key string) (deal.SpecialOffer, bool, error)
	CompleteOfferKey(ctx context.Context, key string, offer deal.SpecialOffer, ttl time.Duration) error
	ReleaseOfferKey(ctx context.Context, key string) error
}

// Interface defines the catalog operations served over HTTP.
type Interface interface {
	Categories(ctx context.Context) ([]tree.CategoryTree, error)
	InvalidateCategories(ctx context.Context) error
	NewestProducts(ctx context.Context, viewer *domain.CustomerID, page Page) ([]catalog.ProductOverview, error)
	DiscountedProducts(ctx context.Context, viewer *domain.CustomerID, page Page) ([]catalog.ProductOverview, error)
	ProductInfo(ctx context.Context, viewer *domain.CustomerID, product domain.ProductID) (catalog.ProductInfo, error)
	ProductReviews(ctx context.Context, viewer *domain.CustomerID, product domain.ProductID, page Page) (catalog.ReviewsView, error)
	CreateSpecialOffer(ctx context.Context, offer deal.SpecialOffer) (deal.SpecialOffer, error)
	CreateSpecialOfferOnce(ctx context.Context, key string, offer deal.SpecialOffer) (deal.SpecialOffer, bool, error)
	QuoteDeal(req DealQuoteRequest) (DealQuote, error)
	Orders(ctx context.Context, customer domain.CustomerID, page Page) ([]catalog.Order, error)
	QuoteCart(ctx context.Context, customer domain.CustomerID) (catalog.CartQuote, error)
	SavedQuote(ctx context.Context, id uuid.UUID) (catalog.CartQuote, error)
}

// Page selects a window of a listing. A zero Limit means the default size.
type Page struct {
	Limit  int
	Offset int
}

// DealQuoteRequest prices units items of a product costing Price under Deal.
type DealQuoteRequest struct {
	Price decimal.Decimal `json:"price"`
	Deal  deal.Deal       `json:"deal"`
	Units uint32          `json:"units"`
	Limit *uint32         `json:"limit,omitempty"`
}

// DealQuote is the result of a deal quote.
type DealQuote struct {
	Deal            deal.Deal       `json:"deal"`
	Undiscounted    decimal.Decimal `json:"undiscounted"`
	Total           decimal.Decimal `json:"total"`
	Uses            uint32          `json:"uses"`
	AverageDiscount decimal.Decimal `json:"average_discount"`
}
