package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/domain"
)

// ProductRow is a product joined with its vendor and active offer, as listed
// on overview pages.
type ProductRow struct {
	ID              domain.ProductID
	Name            string
	Thumbnail       string
	Price           decimal.Decimal
	Overview        string
	InStock         int64
	AmountPerUnit   decimal.Decimal
	MeasurementUnit *string
	VendorName      string
	Origin          string
	CreatedAt       time.Time
	Offer           OfferColumns
	Favorited       bool
}

// ProductOverview is a product as shown in lists.
type ProductOverview struct {
	ID            domain.ProductID `json:"id"`
	Name          string           `json:"name"`
	Thumbnail     string           `json:"thumbnail"`
	Price         decimal.Decimal  `json:"price"`
	Overview      string           `json:"overview"`
	InStock       uint32           `json:"in_stock"`
	AmountPerUnit domain.Amount    `json:"amount_per_unit"`
	VendorName    string           `json:"vendor_name"`
	Origin        string           `json:"origin"`
	CreatedAt     time.Time        `json:"created_at"`
	SpecialOffer  *ActiveOffer     `json:"special_offer,omitempty"`
	// Favorited is false for anonymous viewers.
	Favorited bool `json:"favorited"`
}

// BuildOverview validates a row and converts it.
func BuildOverview(row ProductRow) (ProductOverview, error) {
	stock, err := buildStock(row.ID, row.InStock)
	if err != nil {
		return ProductOverview{}, err
	}
	amount, err := buildAmount(row.ID, row.AmountPerUnit, row.MeasurementUnit)
	if err != nil {
		return ProductOverview{}, err
	}
	offer, err := buildActiveOffer(row.ID, row.Offer, row.Price)
	if err != nil {
		return ProductOverview{}, err
	}

	return ProductOverview{
		ID:            row.ID,
		Name:          row.Name,
		Thumbnail:     row.Thumbnail,
		Price:         row.Price,
		Overview:      row.Overview,
		InStock:       stock,
		AmountPerUnit: amount,
		VendorName:    row.VendorName,
		Origin:        row.Origin,
		CreatedAt:     row.CreatedAt,
		SpecialOffer:  offer,
		Favorited:     row.Favorited,
	}, nil
}

// BuildOverviews converts every row, failing on the first bad one.
func BuildOverviews(rows []ProductRow) ([]ProductOverview, error) {
	out := make([]ProductOverview, 0, len(rows))
	for _, row := range rows {
		p, err := BuildOverview(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
