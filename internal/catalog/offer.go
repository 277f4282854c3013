// Package catalog assembles the read models served to callers from flat
// storage rows, using the deal model and the tree builders.
package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
)

// ErrInconsistentRow is returned when storage hands back rows that violate
// its own invariants.
var ErrInconsistentRow = errors.New("inconsistent row data")

// OfferColumns are the columns of the active special offer of a product, all
// NULL when there is none.
type OfferColumns struct {
	Repr             deal.Repr
	MembersOnly      *bool
	LimitPerCustomer *int64
}

// ActiveOffer is the special offer currently running on a product.
type ActiveOffer struct {
	Deal             deal.Deal       `json:"deal"`
	MembersOnly      bool            `json:"members_only"`
	LimitPerCustomer *uint32         `json:"limit_per_customer,omitempty"`
	Discount         decimal.Decimal `json:"discount"`
}

func buildActiveOffer(product domain.ProductID, cols OfferColumns, price decimal.Decimal) (*ActiveOffer, error) {
	d, ok, err := deal.FromRepr(cols.Repr, price)
	if err != nil {
		return nil, fmt.Errorf("%w: product %d offer: %w", ErrInconsistentRow, product, err)
	}

	switch {
	case !ok && cols.MembersOnly == nil && cols.LimitPerCustomer == nil:
		return nil, nil
	case !ok || cols.MembersOnly == nil:
		return nil, fmt.Errorf("%w: product %d has partial offer columns", ErrInconsistentRow, product)
	}

	limit, err := OfferLimit(product, cols.LimitPerCustomer)
	if err != nil {
		return nil, err
	}
	offer := &ActiveOffer{Deal: d, MembersOnly: *cols.MembersOnly, LimitPerCustomer: limit}
	offer.Discount, _ = d.AverageDiscount(price)
	return offer, nil
}

// OfferLimit converts a stored per-customer limit column. NULL means no
// limit; anything outside 1..MaxInt32 is an inconsistent row.
func OfferLimit(product domain.ProductID, limit *int64) (*uint32, error) {
	if limit == nil {
		return nil, nil
	}
	if *limit <= 0 || *limit > math.MaxInt32 {
		return nil, fmt.Errorf("%w: product %d offer limit %d", ErrInconsistentRow, product, *limit)
	}
	l := uint32(*limit)
	return &l, nil
}

func buildAmount(product domain.ProductID, quantity decimal.Decimal, unit *string) (domain.Amount, error) {
	a, err := domain.NewAmount(quantity, unit)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("%w: product %d amount: %w", ErrInconsistentRow, product, err)
	}
	return a, nil
}

func buildStock(product domain.ProductID, inStock int64) (uint32, error) {
	if inStock < 0 || inStock > math.MaxUint32 {
		return 0, fmt.Errorf("%w: product %d stock %d", ErrInconsistentRow, product, inStock)
	}
	return uint32(inStock), nil
}
