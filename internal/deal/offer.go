package deal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/domain"
)

// SpecialOffer attaches a deal to a product for a validity window.
//
// Storage guarantees that at most one offer per product is active at any
// instant; Overlaps is the check it runs before inserting.
type SpecialOffer struct {
	ID               domain.SpecialOfferID `json:"id"`
	Product          domain.ProductID      `json:"product"`
	Deal             Deal                  `json:"deal"`
	MembersOnly      bool                  `json:"members_only"`
	LimitPerCustomer *uint32               `json:"limit_per_customer,omitempty"`
	ValidFrom        time.Time             `json:"valid_from"`
	ValidUntil       *time.Time            `json:"valid_until,omitempty"`
}

// ActiveAt reports whether t falls in [ValidFrom, ValidUntil).
func (o SpecialOffer) ActiveAt(t time.Time) bool {
	if t.Before(o.ValidFrom) {
		return false
	}
	return o.ValidUntil == nil || t.Before(*o.ValidUntil)
}

// Overlaps reports whether both windows share an instant.
func (o SpecialOffer) Overlaps(other SpecialOffer) bool {
	return startsBefore(o.ValidFrom, other.ValidUntil) && startsBefore(other.ValidFrom, o.ValidUntil)
}

func startsBefore(from time.Time, until *time.Time) bool {
	return until == nil || from.Before(*until)
}

// Validate checks the deal against basePrice, the usage limit and the window,
// and canonicalizes the deal in place.
func (o *SpecialOffer) Validate(basePrice decimal.Decimal) error {
	d, err := o.Deal.Validate(basePrice)
	if err != nil {
		return err
	}
	if o.LimitPerCustomer != nil {
		if err := checkQuantity("limit_per_customer", *o.LimitPerCustomer); err != nil {
			return err
		}
	}
	if o.ValidUntil != nil && !o.ValidFrom.Before(*o.ValidUntil) {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidWindow,
			o.ValidFrom.Format(time.RFC3339), o.ValidUntil.Format(time.RFC3339))
	}
	o.Deal = d
	return nil
}

// RemainingUses returns how many more times a customer that already used
// the offer used times may use it. nil means unlimited.
func (o SpecialOffer) RemainingUses(used uint32) *uint32 {
	if o.LimitPerCustomer == nil {
		return nil
	}
	var left uint32
	if used < *o.LimitPerCustomer {
		left = *o.LimitPerCustomer - used
	}
	return &left
}

// Apply prices units items for a customer. Members-only offers do not apply
// to non-members.
func (o SpecialOffer) Apply(units uint32, pricePerUnit decimal.Decimal, member bool, used uint32) (decimal.Decimal, uint32) {
	if o.MembersOnly && !member {
		return pricePerUnit.Mul(decimal.NewFromInt(int64(units))), 0
	}
	return o.Deal.DiscountedPrice(units, pricePerUnit, o.RemainingUses(used))
}
