package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeQuantity is returned when an amount has a negative quantity.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")

	// ErrFractionalDiscrete is returned when a unitless amount is not an integer.
	ErrFractionalDiscrete = errors.New("quantity without unit must be an integer")
)

// Amount is a quantity of a product, possibly with a unit, e.g. "4.2 kg".
//
// Without a unit the quantity counts discrete items and is always an integer.
// The type knows nothing about what units mean, so it cannot convert between
// them.
type Amount struct {
	quantity decimal.Decimal
	unit     string
	hasUnit  bool
}

// NewAmount validates and constructs an amount. A nil unit means discrete
// units.
func NewAmount(quantity decimal.Decimal, unit *string) (Amount, error) {
	if quantity.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegativeQuantity, quantity)
	}
	if unit == nil {
		if !quantity.IsInteger() {
			return Amount{}, fmt.Errorf("%w: %s", ErrFractionalDiscrete, quantity)
		}
		return Amount{quantity: quantity}, nil
	}
	return Amount{quantity: quantity, unit: *unit, hasUnit: true}, nil
}

// Discrete returns an amount of n discrete units.
func Discrete(n uint32) Amount {
	return Amount{quantity: decimal.NewFromInt(int64(n))}
}

// WithUnit returns an amount measured in unit. The caller guarantees the
// quantity is non-negative.
func WithUnit(quantity decimal.Decimal, unit string) Amount {
	return Amount{quantity: quantity, unit: unit, hasUnit: true}
}

// Quantity returns the quantity. It is an integer when Unit reports false.
func (a Amount) Quantity() decimal.Decimal { return a.quantity }

// Unit returns the unit, if any.
func (a Amount) Unit() (string, bool) { return a.unit, a.hasUnit }

// Equal reports whether both amounts have the same quantity and unit.
func (a Amount) Equal(b Amount) bool {
	return a.hasUnit == b.hasUnit && a.unit == b.unit && a.quantity.Equal(b.quantity)
}

// Compare compares quantities when the units match. ok is false otherwise.
func (a Amount) Compare(b Amount) (cmp int, ok bool) {
	if a.hasUnit != b.hasUnit || a.unit != b.unit {
		return 0, false
	}
	return a.quantity.Cmp(b.quantity), true
}

func (a Amount) String() string {
	if a.hasUnit {
		return a.quantity.StringFixed(2) + " " + a.unit
	}
	return a.quantity.String()
}

type amountJSON struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     *string         `json:"unit,omitempty"`
}

// MarshalJSON encodes the quantity as a decimal string so it never passes
// through binary floating point.
func (a Amount) MarshalJSON() ([]byte, error) {
	out := amountJSON{Quantity: a.quantity}
	if a.hasUnit {
		unit := a.unit
		out.Unit = &unit
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates an amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var in amountJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed, err := NewAmount(in.Quantity, in.Unit)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
