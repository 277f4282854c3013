package deal

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type dealJSON struct {
	Type     string           `json:"type"`
	NewPrice *decimal.Decimal `json:"new_price,omitempty"`
	Take     *uint32          `json:"take,omitempty"`
	PayFor   *uint32          `json:"pay_for,omitempty"`
	Pay      *decimal.Decimal `json:"pay,omitempty"`
}

// MarshalJSON encodes the deal with a "type" tag and only the fields of its
// kind. Prices are decimal strings.
func (d Deal) MarshalJSON() ([]byte, error) {
	out := dealJSON{Type: d.Kind.String()}
	switch d.Kind {
	case KindDiscount:
		out.NewPrice = &d.NewPrice
	case KindBatch:
		out.Take, out.PayFor = &d.Take, &d.PayFor
	case KindBatchPrice:
		out.Take, out.Pay = &d.Take, &d.Pay
	default:
		return nil, fmt.Errorf("%w: no kind", ErrInvalidVariant)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the shape only. The result still has to pass
// Validate against a base price.
func (d *Deal) UnmarshalJSON(data []byte) error {
	var in dealJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Type {
	case "discount":
		if in.NewPrice == nil || in.Take != nil || in.PayFor != nil || in.Pay != nil {
			return fmt.Errorf("%w: discount needs exactly new_price", ErrInvalidVariant)
		}
		*d = Discount(*in.NewPrice)
	case "batch":
		if in.Take == nil || in.PayFor == nil || in.NewPrice != nil || in.Pay != nil {
			return fmt.Errorf("%w: batch needs exactly take and pay_for", ErrInvalidVariant)
		}
		*d = Batch(*in.Take, *in.PayFor)
	case "batch_price":
		if in.Take == nil || in.Pay == nil || in.NewPrice != nil || in.PayFor != nil {
			return fmt.Errorf("%w: batch_price needs exactly take and pay", ErrInvalidVariant)
		}
		*d = BatchPrice(*in.Take, *in.Pay)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidVariant, in.Type)
	}
	return nil
}
