package catalog

import (
	"cmp"
	"slices"
)

// ByProductID is a secondary ordering for SortByDiscount.
func ByProductID(a, b ProductOverview) int {
	return cmp.Compare(a.ID, b.ID)
}

// SortByDiscount orders products by the average discount of their active
// offer, largest first; products without an offer go last. Equal discounts
// are ordered by secondary.
func SortByDiscount(products []ProductOverview, secondary func(a, b ProductOverview) int) {
	slices.SortStableFunc(products, func(a, b ProductOverview) int {
		switch {
		case a.SpecialOffer == nil && b.SpecialOffer == nil:
		case a.SpecialOffer == nil:
			return 1
		case b.SpecialOffer == nil:
			return -1
		default:
			if c := b.SpecialOffer.Discount.Cmp(a.SpecialOffer.Discount); c != 0 {
				return c
			}
		}
		if secondary == nil {
			return 0
		}
		return secondary(a, b)
	})
}
