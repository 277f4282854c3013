package deal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroPrice is returned when the base price is not strictly positive.
	ErrZeroPrice = errors.New("base price must be positive")

	// ErrOutOfRange is returned when a quantity or price is not positive or
	// does not fit the storage columns.
	ErrOutOfRange = errors.New("value out of range")

	// ErrInvalidVariant is returned when a stored tuple matches no deal shape.
	ErrInvalidVariant = errors.New("invalid deal variant")

	// ErrNoDiscount is returned when a deal is well formed but does not lower
	// the price.
	ErrNoDiscount = errors.New("deal does not provide a discount")

	// ErrInvalidWindow is returned when an offer ends before it starts.
	ErrInvalidWindow = errors.New("offer validity window is empty")
)

// VariantError carries the raw tuple that matched no shape.
type VariantError struct {
	Repr Repr
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidVariant, e.Repr)
}

func (e *VariantError) Unwrap() error { return ErrInvalidVariant }

// RangeError names the offending field.
type RangeError struct {
	Field string
	Value string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s = %s", ErrOutOfRange, e.Field, e.Value)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// NoDiscountError carries the rejected deal so the offer author can be told
// what was wrong with it.
type NoDiscountError struct {
	Deal      Deal
	BasePrice decimal.Decimal
}

func (e *NoDiscountError) Error() string {
	return fmt.Sprintf("%s: %s at base price %s", ErrNoDiscount, e.Deal, e.BasePrice)
}

func (e *NoDiscountError) Unwrap() error { return ErrNoDiscount }

// Reason returns a short label for metrics, or "" for errors from elsewhere.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrZeroPrice):
		return "zero_price"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrInvalidVariant):
		return "invalid_variant"
	case errors.Is(err, ErrNoDiscount):
		return "no_discount"
	case errors.Is(err, ErrInvalidWindow):
		return "invalid_window"
	}
	return ""
}
