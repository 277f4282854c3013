package catalog

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/domain"
)

// PurchaseRow is one line of the orders table joined with its product.
// Rows arrive newest first.
type PurchaseRow struct {
	Product          domain.ProductID
	Time             time.Time
	Paid             decimal.Decimal
	SpecialOfferUsed bool
	Number           int64
	AmountPerUnit    decimal.Decimal
	MeasurementUnit  *string
	ProductName      string
	Thumbnail        string
	VendorName       string
}

// Purchase is one product bought in an order.
type Purchase struct {
	Product          domain.ProductID `json:"product"`
	Paid             decimal.Decimal  `json:"paid"`
	SpecialOfferUsed bool             `json:"special_offer_used"`
	Number           uint32           `json:"number"`
	AmountPerUnit    domain.Amount    `json:"amount_per_unit"`
	ProductName      string           `json:"product_name"`
	Thumbnail        string           `json:"thumbnail"`
	VendorName       string           `json:"vendor_name"`
}

// Order is every purchase made at the same instant.
type Order struct {
	Time      time.Time  `json:"time"`
	Purchases []Purchase `json:"purchases"`
}

// Price is the total paid for the order.
func (o Order) Price() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Purchases {
		total = total.Add(p.Paid)
	}
	return total
}

// GroupOrders groups consecutive purchases with an equal time into orders,
// keeping the input order.
func GroupOrders(rows []PurchaseRow) ([]Order, error) {
	var orders []Order
	for _, row := range rows {
		p, err := buildPurchase(row)
		if err != nil {
			return nil, err
		}
		if n := len(orders); n > 0 && orders[n-1].Time.Equal(row.Time) {
			orders[n-1].Purchases = append(orders[n-1].Purchases, p)
			continue
		}
		orders = append(orders, Order{Time: row.Time, Purchases: []Purchase{p}})
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

func buildPurchase(row PurchaseRow) (Purchase, error) {
	if row.Number <= 0 || row.Number > math.MaxInt32 {
		return Purchase{}, fmt.Errorf("%w: product %d purchased %d units", ErrInconsistentRow, row.Product, row.Number)
	}
	amount, err := buildAmount(row.Product, row.AmountPerUnit, row.MeasurementUnit)
	if err != nil {
		return Purchase{}, err
	}
	return Purchase{
		Product:          row.Product,
		Paid:             row.Paid,
		SpecialOfferUsed: row.SpecialOfferUsed,
		Number:           uint32(row.Number),
		AmountPerUnit:    amount,
		ProductName:      row.ProductName,
		Thumbnail:        row.Thumbnail,
		VendorName:       row.VendorName,
	}, nil
}
