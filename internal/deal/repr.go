package deal

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Repr is the flat storage form of a deal: the new_price, quantity1 and
// quantity2 columns.
//
//	Discount:   (new_price, NULL, NULL)
//	Batch:      (NULL, take, pay_for)
//	BatchPrice: (pay, take, NULL)
//
// An all-NULL tuple means the product has no offer.
type Repr struct {
	NewPrice  decimal.NullDecimal
	Quantity1 *int64
	Quantity2 *int64
}

func (r Repr) String() string {
	return fmt.Sprintf("(%s, %s, %s)", nullString(r.NewPrice), intString(r.Quantity1), intString(r.Quantity2))
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "NULL"
	}
	return d.Decimal.String()
}

func intString(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(*v)
}

// IsEmpty reports whether the tuple means "no offer".
func (r Repr) IsEmpty() bool {
	return !r.NewPrice.Valid && r.Quantity1 == nil && r.Quantity2 == nil
}

// FromRepr rebuilds a deal from its storage form and validates it against
// basePrice. ok is false, with a nil error, for an empty tuple.
//
// A tuple matching no shape returns a *VariantError; other failures follow
// the order of Validate.
func FromRepr(r Repr, basePrice decimal.Decimal) (d Deal, ok bool, err error) {
	kind, ok := r.kind()
	if !ok {
		if r.IsEmpty() {
			return Deal{}, false, nil
		}
		return Deal{}, false, &VariantError{Repr: r}
	}
	if !basePrice.IsPositive() {
		return Deal{}, false, ErrZeroPrice
	}

	switch kind {
	case KindDiscount:
		d = Discount(r.NewPrice.Decimal)
	case KindBatch:
		take, err := toQuantity("quantity1", *r.Quantity1)
		if err != nil {
			return Deal{}, false, err
		}
		payFor, err := toQuantity("quantity2", *r.Quantity2)
		if err != nil {
			return Deal{}, false, err
		}
		d = Batch(take, payFor)
	case KindBatchPrice:
		take, err := toQuantity("quantity1", *r.Quantity1)
		if err != nil {
			return Deal{}, false, err
		}
		d = BatchPrice(take, r.NewPrice.Decimal)
	}

	d, err = d.Validate(basePrice)
	if err != nil {
		return Deal{}, false, err
	}
	return d, true, nil
}

// kind resolves the shape of the tuple from which columns are set.
func (r Repr) kind() (Kind, bool) {
	switch {
	case r.NewPrice.Valid && r.Quantity1 == nil && r.Quantity2 == nil:
		return KindDiscount, true
	case !r.NewPrice.Valid && r.Quantity1 != nil && r.Quantity2 != nil:
		return KindBatch, true
	case r.NewPrice.Valid && r.Quantity1 != nil && r.Quantity2 == nil:
		return KindBatchPrice, true
	}
	return 0, false
}

func toQuantity(field string, v int64) (uint32, error) {
	if v <= 0 || v > math.MaxInt32 {
		return 0, &RangeError{Field: field, Value: fmt.Sprint(v)}
	}
	return uint32(v), nil
}

// Repr converts the deal into its storage form. ok is false when a quantity
// does not fit the 32-bit columns or the deal has no kind; nothing is ever
// truncated.
func (d Deal) Repr() (r Repr, ok bool) {
	switch d.Kind {
	case KindDiscount:
		return Repr{NewPrice: decimal.NewNullDecimal(d.NewPrice)}, true
	case KindBatch:
		if d.Take > math.MaxInt32 || d.PayFor > math.MaxInt32 {
			return Repr{}, false
		}
		take, payFor := int64(d.Take), int64(d.PayFor)
		return Repr{Quantity1: &take, Quantity2: &payFor}, true
	case KindBatchPrice:
		if d.Take > math.MaxInt32 {
			return Repr{}, false
		}
		take := int64(d.Take)
		return Repr{NewPrice: decimal.NewNullDecimal(d.Pay), Quantity1: &take}, true
	}
	return Repr{}, false
}
