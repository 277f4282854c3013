// Package deal implements the special-offer discount model: the three deal
// shapes, their validation against a base price, the storage representation
// and the final price of a purchase under an optional usage cap.
package deal

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Kind is the shape of a deal.
type Kind uint8

const (
	// KindDiscount is a flat sale price.
	KindDiscount Kind = iota + 1
	// KindBatch is "take N, pay for M".
	KindBatch
	// KindBatchPrice is "take N, pay X in total".
	KindBatchPrice
)

func (k Kind) String() string {
	switch k {
	case KindDiscount:
		return "discount"
	case KindBatch:
		return "batch"
	case KindBatchPrice:
		return "batch_price"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MaxPrice is the largest price the DECIMAL(10,2) columns hold.
var MaxPrice = decimal.RequireFromString("99999999.99")

// Deal is a closed union over the three shapes. Only the fields of the
// active Kind are meaningful:
//
//	KindDiscount:   NewPrice
//	KindBatch:      Take, PayFor
//	KindBatchPrice: Take, Pay
//
// A zero Deal has no kind and is never valid.
type Deal struct {
	Kind     Kind
	NewPrice decimal.Decimal
	Take     uint32
	PayFor   uint32
	Pay      decimal.Decimal
}

// Discount returns an unvalidated flat-price deal.
func Discount(newPrice decimal.Decimal) Deal {
	return Deal{Kind: KindDiscount, NewPrice: newPrice}
}

// Batch returns an unvalidated "take N, pay for M" deal.
func Batch(take, payFor uint32) Deal {
	return Deal{Kind: KindBatch, Take: take, PayFor: payFor}
}

// BatchPrice returns an unvalidated "take N, pay X" deal.
func BatchPrice(take uint32, pay decimal.Decimal) Deal {
	return Deal{Kind: KindBatchPrice, Take: take, Pay: pay}
}

// Normalize collapses BatchPrice{take=1} into the equivalent Discount so that
// equal offers share one representation.
func (d Deal) Normalize() Deal {
	if d.Kind == KindBatchPrice && d.Take == 1 {
		return Discount(d.Pay)
	}
	return d
}

// Equal compares the fields of the active kind.
func (d Deal) Equal(o Deal) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case KindDiscount:
		return d.NewPrice.Equal(o.NewPrice)
	case KindBatch:
		return d.Take == o.Take && d.PayFor == o.PayFor
	case KindBatchPrice:
		return d.Take == o.Take && d.Pay.Equal(o.Pay)
	}
	return true
}

func (d Deal) String() string {
	switch d.Kind {
	case KindDiscount:
		return "new price " + d.NewPrice.StringFixed(2)
	case KindBatch:
		return fmt.Sprintf("take %d pay for %d", d.Take, d.PayFor)
	case KindBatchPrice:
		return fmt.Sprintf("take %d pay %s", d.Take, d.Pay.StringFixed(2))
	}
	return "invalid deal"
}

// Validate checks the deal against basePrice and returns its canonical form.
// Errors are checked in order: ErrZeroPrice, ErrOutOfRange, ErrNoDiscount.
func (d Deal) Validate(basePrice decimal.Decimal) (Deal, error) {
	if !basePrice.IsPositive() {
		return Deal{}, ErrZeroPrice
	}
	if err := d.checkRange(); err != nil {
		return Deal{}, err
	}
	d = d.Normalize()
	if _, ok := d.AverageDiscount(basePrice); !ok {
		return Deal{}, &NoDiscountError{Deal: d, BasePrice: basePrice}
	}
	return d, nil
}

func (d Deal) checkRange() error {
	switch d.Kind {
	case KindDiscount:
		return checkPrice("new_price", d.NewPrice)
	case KindBatch:
		if err := checkQuantity("take", d.Take); err != nil {
			return err
		}
		return checkQuantity("pay_for", d.PayFor)
	case KindBatchPrice:
		if err := checkQuantity("take", d.Take); err != nil {
			return err
		}
		return checkPrice("pay", d.Pay)
	}
	return &VariantError{}
}

func checkPrice(field string, p decimal.Decimal) error {
	if !p.IsPositive() || p.GreaterThan(MaxPrice) || !p.Equal(p.Round(2)) {
		return &RangeError{Field: field, Value: p.String()}
	}
	return nil
}

func checkQuantity(field string, q uint32) error {
	if q == 0 || q > math.MaxInt32 {
		return &RangeError{Field: field, Value: fmt.Sprint(q)}
	}
	return nil
}

// AverageDiscount returns the discount per unit as a fraction of basePrice.
// ok is false when the deal does not lower the price, in which case the
// fraction is meaningless. For a valid deal the fraction is in (0,1).
//
// The result depends only on the deal and basePrice, so it is a stable sort
// key; callers break ties themselves.
func (d Deal) AverageDiscount(basePrice decimal.Decimal) (fraction decimal.Decimal, ok bool) {
	if !basePrice.IsPositive() {
		return decimal.Zero, false
	}
	d = d.Normalize()
	switch d.Kind {
	case KindDiscount:
		if d.NewPrice.IsPositive() && d.NewPrice.LessThan(basePrice) {
			return decimal.NewFromInt(1).Sub(d.NewPrice.Div(basePrice)), true
		}
	case KindBatch:
		if d.PayFor > 0 && d.Take > d.PayFor {
			take := decimal.NewFromInt(int64(d.Take))
			payFor := decimal.NewFromInt(int64(d.PayFor))
			return decimal.NewFromInt(1).Sub(payFor.Div(take)), true
		}
	case KindBatchPrice:
		take := decimal.NewFromInt(int64(d.Take))
		if d.Take > 1 && d.Pay.IsPositive() && d.Pay.Mul(take).LessThan(basePrice) {
			return decimal.NewFromInt(1).Sub(d.Pay.Div(basePrice.Mul(take))), true
		}
	}
	return decimal.Zero, false
}

// DiscountedPrice returns the total for units items at pricePerUnit and how
// many times the deal was applied. limit caps the number of uses; nil means
// unbounded. Partial batches pay full price.
func (d Deal) DiscountedPrice(units uint32, pricePerUnit decimal.Decimal, limit *uint32) (decimal.Decimal, uint32) {
	if units == 0 {
		return decimal.Zero, 0
	}
	total := pricePerUnit.Mul(decimal.NewFromInt(int64(units)))

	var uses uint32
	switch d.Kind {
	case KindDiscount:
		uses = capUses(units, limit)
	case KindBatch, KindBatchPrice:
		if d.Take > 0 {
			uses = capUses(units/d.Take, limit)
		}
	}
	if uses == 0 {
		return total, 0
	}
	n := decimal.NewFromInt(int64(uses))

	switch d.Kind {
	case KindDiscount:
		return total.Add(n.Mul(d.NewPrice.Sub(pricePerUnit))), uses
	case KindBatch:
		free := int64(uses) * (int64(d.Take) - int64(d.PayFor))
		return pricePerUnit.Mul(decimal.NewFromInt(int64(units) - free)), uses
	default:
		rest := int64(units) - int64(uses)*int64(d.Take)
		return n.Mul(d.Pay).Add(pricePerUnit.Mul(decimal.NewFromInt(rest))), uses
	}
}

func capUses(uses uint32, limit *uint32) uint32 {
	if limit != nil && *limit < uses {
		return *limit
	}
	return uses
}
