package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

// ProductInfoRow is everything the product page needs in one row. Ancestors
// holds the product's category and its ancestors in any order.
type ProductInfoRow struct {
	ID              domain.ProductID
	Name            string
	Gallery         []string
	Thumbnail       string
	Price           decimal.Decimal
	Description     string
	InStock         int64
	AmountPerUnit   decimal.Decimal
	MeasurementUnit *string
	Origin          string
	Visible         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Offer           OfferColumns
	VendorID        domain.VendorID
	VendorName      string
	Category        domain.CategoryID
	Ancestors       []tree.CategoryRow
	AverageRating   decimal.NullDecimal
	RatingCount     int64
	Favorited       bool
	OwnRating       *int32
	HasPurchased    bool
}

// ProductInfo is the product page read model. The viewer-specific fields
// are zero for anonymous viewers.
type ProductInfo struct {
	ID            domain.ProductID       `json:"id"`
	Name          string                 `json:"name"`
	Gallery       []string               `json:"gallery"`
	Price         decimal.Decimal        `json:"price"`
	Description   string                 `json:"description"`
	InStock       uint32                 `json:"in_stock"`
	Category      []tree.CategorySegment `json:"category"`
	AmountPerUnit domain.Amount          `json:"amount_per_unit"`
	Visible       bool                   `json:"visible"`
	VendorID      domain.VendorID        `json:"vendor_id"`
	VendorName    string                 `json:"vendor_name"`
	Origin        string                 `json:"origin"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Rating        domain.AverageRating   `json:"rating"`
	SpecialOffer  *ActiveOffer           `json:"special_offer,omitempty"`
	Favorited     bool                   `json:"favorited"`
	OwnRating     *domain.Rating         `json:"own_rating,omitempty"`
	HasPurchased  bool                   `json:"has_purchased"`
}

// BuildInfo validates a product page row and converts it. An empty gallery
// falls back to the thumbnail.
func BuildInfo(row ProductInfoRow) (ProductInfo, error) {
	stock, err := buildStock(row.ID, row.InStock)
	if err != nil {
		return ProductInfo{}, err
	}
	amount, err := buildAmount(row.ID, row.AmountPerUnit, row.MeasurementUnit)
	if err != nil {
		return ProductInfo{}, err
	}
	offer, err := buildActiveOffer(row.ID, row.Offer, row.Price)
	if err != nil {
		return ProductInfo{}, err
	}
	path, err := tree.BuildCategoryPath(row.Ancestors, row.Category)
	if err != nil {
		return ProductInfo{}, fmt.Errorf("product %d category: %w", row.ID, err)
	}
	rating, err := buildAverageRating(row.ID, row.AverageRating, row.RatingCount)
	if err != nil {
		return ProductInfo{}, err
	}

	var own *domain.Rating
	if row.OwnRating != nil {
		r, err := domain.NewRating(int(*row.OwnRating))
		if err != nil {
			return ProductInfo{}, fmt.Errorf("%w: product %d own rating: %w", ErrInconsistentRow, row.ID, err)
		}
		own = &r
	}

	gallery := row.Gallery
	if len(gallery) == 0 {
		gallery = []string{row.Thumbnail}
	}

	return ProductInfo{
		ID:            row.ID,
		Name:          row.Name,
		Gallery:       gallery,
		Price:         row.Price,
		Description:   row.Description,
		InStock:       stock,
		Category:      path,
		AmountPerUnit: amount,
		Visible:       row.Visible,
		VendorID:      row.VendorID,
		VendorName:    row.VendorName,
		Origin:        row.Origin,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Rating:        rating,
		SpecialOffer:  offer,
		Favorited:     row.Favorited,
		OwnRating:     own,
		HasPurchased:  row.HasPurchased,
	}, nil
}

func buildAverageRating(product domain.ProductID, mean decimal.NullDecimal, count int64) (domain.AverageRating, error) {
	switch {
	case !mean.Valid && count == 0:
		return domain.AverageRating{}, nil
	case mean.Valid && count > 0:
		r, err := domain.NewAverageRating(mean.Decimal, uint64(count))
		if err != nil {
			return domain.AverageRating{}, fmt.Errorf("%w: product %d rating: %w", ErrInconsistentRow, product, err)
		}
		return r, nil
	}
	return domain.AverageRating{}, fmt.Errorf("%w: product %d rating count %d", ErrInconsistentRow, product, count)
}
