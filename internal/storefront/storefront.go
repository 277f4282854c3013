// Package storefront serves the catalog read models. It loads rows from the
// store, assembles them with the engine packages, and caches what is stable.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog-engine-go/internal/api/middleware"
	"catalog-engine-go/internal/catalog"
	"catalog-engine-go/internal/config"
	"catalog-engine-go/internal/datastore"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

// Storefront implements Interface on top of a Store and a Cache.
type Storefront struct {
	store  Store
	cache  Cache
	config *config.Config
	logger *zap.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewStorefront creates a new storefront instance.
func NewStorefront(store Store, cache Cache, cfg *config.Config, logger *zap.Logger) *Storefront {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storefront{
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Categories returns the category forest, from cache when possible.
func (s *Storefront) Categories(ctx context.Context) ([]tree.CategoryTree, error) {
	forest, ok, err := s.cache.CategoryForest(ctx)
	switch {
	case err != nil:
		s.logger.Warn("failed to read cached category forest", zap.Error(err))
		middleware.CategoryCacheTotal.WithLabelValues("error").Inc()
	case ok:
		middleware.CategoryCacheTotal.WithLabelValues("hit").Inc()
		return forest, nil
	default:
		middleware.CategoryCacheTotal.WithLabelValues("miss").Inc()
	}

	return s.rebuildCategories(ctx)
}

// WarmCategories rebuilds the category forest from the store and replaces
// the cached copy, whether or not one is present.
func (s *Storefront) WarmCategories(ctx context.Context) error {
	_, err := s.rebuildCategories(ctx)
	return err
}

func (s *Storefront) rebuildCategories(ctx context.Context) ([]tree.CategoryTree, error) {
	rows, err := s.store.CategoryRows(ctx)
	if err != nil {
		return nil, err
	}
	forest, err := tree.BuildCategoryForest(rows)
	if err != nil {
		return nil, s.inconsistent("category", err)
	}

	if err := s.cache.SetCategoryForest(ctx, forest); err != nil {
		s.logger.Warn("failed to cache category forest", zap.Error(err))
	}
	s.logger.Debug("rebuilt category forest",
		zap.Int("categories", len(rows)),
		zap.Int("roots", len(forest)),
	)
	return forest, nil
}

// InvalidateCategories drops the cached forest so the next read rebuilds it.
func (s *Storefront) InvalidateCategories(ctx context.Context) error {
	if err := s.cache.InvalidateCategoryForest(ctx); err != nil {
		return err
	}
	s.logger.Info("category forest cache invalidated")
	return nil
}

// NewestProducts lists in-stock products, newest first.
func (s *Storefront) NewestProducts(ctx context.Context, viewer *domain.CustomerID, page Page) ([]catalog.ProductOverview, error) {
	page, err := s.page(page)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.NewestProducts(ctx, viewer, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	products, err := catalog.BuildOverviews(rows)
	if err != nil {
		return nil, s.inconsistent("product", err)
	}
	return products, nil
}

// DiscountedProducts lists products with an active offer, largest average
// discount first.
func (s *Storefront) DiscountedProducts(ctx context.Context, viewer *domain.CustomerID, page Page) ([]catalog.ProductOverview, error) {
	page, err := s.page(page)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.OfferedProducts(ctx, viewer)
	if err != nil {
		return nil, err
	}
	products, err := catalog.BuildOverviews(rows)
	if err != nil {
		return nil, s.inconsistent("product", err)
	}

	catalog.SortByDiscount(products, catalog.ByProductID)
	if page.Offset >= len(products) {
		return []catalog.ProductOverview{}, nil
	}
	end := min(page.Offset+page.Limit, len(products))
	return products[page.Offset:end], nil
}

// ProductInfo returns the product page. Hidden products are not found.
func (s *Storefront) ProductInfo(ctx context.Context, viewer *domain.CustomerID, product domain.ProductID) (catalog.ProductInfo, error) {
	row, err := s.store.ProductInfo(ctx, viewer, product)
	if err != nil {
		return catalog.ProductInfo{}, err
	}
	if !row.Visible {
		return catalog.ProductInfo{}, fmt.Errorf("product %d is hidden: %w", product, datastore.ErrNotFound)
	}
	info, err := catalog.BuildInfo(row)
	if err != nil {
		return catalog.ProductInfo{}, s.inconsistent("product", err)
	}
	return info, nil
}

// ProductReviews returns a page of reviews with their comment threads. A
// signed-in viewer's own review is split out.
func (s *Storefront) ProductReviews(ctx context.Context, viewer *domain.CustomerID, product domain.ProductID, page Page) (catalog.ReviewsView, error) {
	page, err := s.page(page)
	if err != nil {
		return catalog.ReviewsView{}, err
	}
	rp, err := s.store.ProductReviews(ctx, product, viewer, page.Limit, page.Offset)
	if err != nil {
		return catalog.ReviewsView{}, err
	}

	if viewer == nil {
		reviews, err := catalog.AssembleReviews(rp.Reviews, rp.Comments)
		if err != nil {
			return catalog.ReviewsView{}, s.inconsistent("review", err)
		}
		return catalog.ReviewsView{Reviews: reviews}, nil
	}

	view, err := catalog.AssembleReviewsAs(rp.Own, rp.Reviews, rp.Comments)
	if err != nil {
		return catalog.ReviewsView{}, s.inconsistent("review", err)
	}
	return view, nil
}

// CreateSpecialOffer validates an offer against the product's current price
// and stores its canonical form.
func (s *Storefront) CreateSpecialOffer(ctx context.Context, offer deal.SpecialOffer) (deal.SpecialOffer, error) {
	price, err := s.store.ProductPrice(ctx, offer.Product)
	if err != nil {
		return deal.SpecialOffer{}, err
	}
	if err := offer.Validate(price); err != nil {
		s.rejectDeal(err, offer.Deal, price)
		return deal.SpecialOffer{}, err
	}

	id, err := s.store.CreateSpecialOffer(ctx, offer)
	if err != nil {
		if errors.Is(err, datastore.ErrOfferOverlap) {
			s.logger.Info("special offer overlaps an existing one",
				zap.Int32("product", int32(offer.Product)),
				zap.Time("valid_from", offer.ValidFrom),
			)
		}
		return deal.SpecialOffer{}, err
	}
	offer.ID = id

	s.logger.Info("special offer created",
		zap.Int32("id", int32(id)),
		zap.Int32("product", int32(offer.Product)),
		zap.Stringer("deal", offer.Deal),
		zap.Bool("members_only", offer.MembersOnly),
	)
	return offer, nil
}

// CreateSpecialOfferOnce creates offer at most once per idempotency key. A
// repeated key returns the offer created the first time with replayed set.
func (s *Storefront) CreateSpecialOfferOnce(ctx context.Context, key string, offer deal.SpecialOffer) (created deal.SpecialOffer, replayed bool, err error) {
	existing, found, err := s.cache.ClaimOfferKey(ctx, key)
	if err != nil {
		return deal.SpecialOffer{}, false, err
	}
	if found {
		if existing.Product != offer.Product {
			return deal.SpecialOffer{}, false, fmt.Errorf("%w: key %q belongs to product %d", ErrKeyReused, key, existing.Product)
		}
		s.logger.Info("special offer replayed",
			zap.String("idempotency_key", key),
			zap.Int32("id", int32(existing.ID)),
		)
		return existing, true, nil
	}

	created, err = s.CreateSpecialOffer(ctx, offer)
	if err != nil {
		if rerr := s.cache.ReleaseOfferKey(ctx, key); rerr != nil {
			s.logger.Warn("failed to release idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(rerr),
			)
		}
		return deal.SpecialOffer{}, false, err
	}

	if err := s.cache.CompleteOfferKey(ctx, key, created, s.config.IdempotencyTTL); err != nil {
		s.logger.Warn("failed to record idempotency key",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
	}
	return created, false, nil
}

// QuoteDeal prices a hypothetical purchase without touching storage.
func (s *Storefront) QuoteDeal(req DealQuoteRequest) (DealQuote, error) {
	if req.Units == 0 {
		return DealQuote{}, fmt.Errorf("%w: units must be positive", ErrInvalidQuote)
	}
	d, err := req.Deal.Validate(req.Price)
	if err != nil {
		s.rejectDeal(err, req.Deal, req.Price)
		return DealQuote{}, err
	}

	total, uses := d.DiscountedPrice(req.Units, req.Price, req.Limit)
	avg, _ := d.AverageDiscount(req.Price)
	middleware.QuotesTotal.WithLabelValues("deal", strconv.FormatBool(uses > 0)).Inc()

	return DealQuote{
		Deal:            d,
		Undiscounted:    req.Price.Mul(decimal.NewFromInt(int64(req.Units))),
		Total:           total,
		Uses:            uses,
		AverageDiscount: avg,
	}, nil
}

// Orders returns a customer's purchases grouped into orders.
func (s *Storefront) Orders(ctx context.Context, customer domain.CustomerID, page Page) ([]catalog.Order, error) {
	page, err := s.page(page)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Purchases(ctx, customer, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	orders, err := catalog.GroupOrders(rows)
	if err != nil {
		return nil, s.inconsistent("order", err)
	}
	return orders, nil
}

// QuoteCart prices a customer's cart and keeps the quote for later lookup.
func (s *Storefront) QuoteCart(ctx context.Context, customer domain.CustomerID) (catalog.CartQuote, error) {
	lines, member, err := s.store.Cart(ctx, customer)
	if err != nil {
		if errors.Is(err, catalog.ErrInconsistentRow) {
			return catalog.CartQuote{}, s.inconsistent("cart", err)
		}
		return catalog.CartQuote{}, err
	}

	q := catalog.QuoteCart(s.newID(), lines, member, s.now())
	middleware.QuotesTotal.WithLabelValues("cart", strconv.FormatBool(q.Savings.IsPositive())).Inc()

	if err := s.cache.SaveQuote(ctx, q, s.config.QuoteTTL); err != nil {
		s.logger.Warn("failed to save cart quote",
			zap.Error(err),
			zap.String("quote_id", q.ID.String()),
		)
	}
	return q, nil
}

// SavedQuote returns a cart quote made earlier, while it has not expired.
func (s *Storefront) SavedQuote(ctx context.Context, id uuid.UUID) (catalog.CartQuote, error) {
	q, ok, err := s.cache.Quote(ctx, id.String())
	if err != nil {
		return catalog.CartQuote{}, err
	}
	if !ok {
		return catalog.CartQuote{}, fmt.Errorf("quote %s: %w", id, datastore.ErrNotFound)
	}
	return q, nil
}

func (s *Storefront) page(p Page) (Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return Page{}, fmt.Errorf("%w: limit %d offset %d", ErrInvalidPage, p.Limit, p.Offset)
	}
	if p.Limit == 0 {
		p.Limit = s.config.DefaultPageSize
	}
	p.Limit = min(p.Limit, s.config.MaxPageSize)
	return p, nil
}

// rejectDeal records a validation failure. A deal that gives no discount is
// an ordinary outcome for the offer author, so it is not logged as a warning.
func (s *Storefront) rejectDeal(err error, d deal.Deal, price fmt.Stringer) {
	reason := deal.Reason(err)
	if reason == "" {
		return
	}
	middleware.DealRejectionsTotal.WithLabelValues(reason).Inc()

	fields := []zap.Field{
		zap.Error(err),
		zap.String("reason", reason),
		zap.Stringer("deal", d),
		zap.Stringer("base_price", price),
	}
	if errors.Is(err, deal.ErrNoDiscount) {
		s.logger.Info("deal rejected", fields...)
		return
	}
	s.logger.Warn("deal rejected", fields...)
}

// inconsistent counts and logs assembly failures caused by bad stored data.
// Other errors pass through untouched.
func (s *Storefront) inconsistent(source string, err error) error {
	if !errors.Is(err, catalog.ErrInconsistentRow) && !tree.IsConsistency(err) {
		return err
	}
	middleware.ConsistencyErrorsTotal.WithLabelValues(source).Inc()
	s.logger.Error("stored catalog data failed assembly",
		zap.String("source", source),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %w", ErrInconsistentData, err)
}
