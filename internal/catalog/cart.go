package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
)

// CartLine is a product in a cart with the offer running on it, if any, and
// how many times the customer has already used that offer.
type CartLine struct {
	Product    domain.ProductID
	Name       string
	Number     uint32
	Price      decimal.Decimal
	Offer      *deal.SpecialOffer
	UsedBefore uint32
}

// LineQuote is the price of one cart line.
type LineQuote struct {
	Product      domain.ProductID `json:"product"`
	Name         string           `json:"name"`
	Number       uint32           `json:"number"`
	Undiscounted decimal.Decimal  `json:"undiscounted"`
	Final        decimal.Decimal  `json:"final"`
	Uses         uint32           `json:"uses"`
	Deal         *deal.Deal       `json:"deal,omitempty"`
}

// CartQuote prices a whole cart. ID lets a later checkout refer to the
// quote the customer saw.
type CartQuote struct {
	ID           uuid.UUID       `json:"id"`
	QuotedAt     time.Time       `json:"quoted_at"`
	Member       bool            `json:"member"`
	Lines        []LineQuote     `json:"lines"`
	Undiscounted decimal.Decimal `json:"undiscounted"`
	Total        decimal.Decimal `json:"total"`
	Savings      decimal.Decimal `json:"savings"`
}

// QuoteCart prices every line at now under the given quote id. Offers
// outside their window are ignored; usage limits count uses made before
// this cart.
func QuoteCart(id uuid.UUID, lines []CartLine, member bool, now time.Time) CartQuote {
	q := CartQuote{
		ID:           id,
		QuotedAt:     now,
		Member:       member,
		Lines:        make([]LineQuote, 0, len(lines)),
		Undiscounted: decimal.Zero,
		Total:        decimal.Zero,
	}

	for _, line := range lines {
		lq := LineQuote{
			Product:      line.Product,
			Name:         line.Name,
			Number:       line.Number,
			Undiscounted: line.Price.Mul(decimal.NewFromInt(int64(line.Number))),
		}
		lq.Final = lq.Undiscounted
		if line.Offer != nil && line.Offer.ActiveAt(now) {
			lq.Final, lq.Uses = line.Offer.Apply(line.Number, line.Price, member, line.UsedBefore)
			if lq.Uses > 0 {
				d := line.Offer.Deal
				lq.Deal = &d
			}
		}

		q.Lines = append(q.Lines, lq)
		q.Undiscounted = q.Undiscounted.Add(lq.Undiscounted)
		q.Total = q.Total.Add(lq.Final)
	}

	q.Savings = q.Undiscounted.Sub(q.Total)
	return q
}
