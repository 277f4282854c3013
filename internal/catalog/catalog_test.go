package catalog

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func i64(v int64) *int64 { return &v }

func u32(v uint32) *uint32 { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(s string) *string { return &s }

func discountOffer(newPrice string) OfferColumns {
	return OfferColumns{
		Repr:        deal.Repr{NewPrice: decimal.NewNullDecimal(dec(newPrice))},
		MembersOnly: boolPtr(false),
	}
}

func productRow(id domain.ProductID, offer OfferColumns) ProductRow {
	return ProductRow{
		ID:            id,
		Name:          "Oat milk",
		Thumbnail:     "/img/oat.png",
		Price:         dec("10"),
		InStock:       4,
		AmountPerUnit: dec("1"),
		Offer:         offer,
	}
}

func TestBuildOverview(t *testing.T) {
	tests := []struct {
		name        string
		row         ProductRow
		expectOffer bool
		expectError bool
		errorMsg    string
	}{
		{name: "no offer", row: productRow(1, OfferColumns{})},
		{name: "discount", row: productRow(1, discountOffer("8")), expectOffer: true},
		{
			name:        "offer without members flag",
			row:         productRow(1, OfferColumns{Repr: deal.Repr{NewPrice: decimal.NewNullDecimal(dec("8"))}}),
			expectError: true,
			errorMsg:    "partial offer columns",
		},
		{
			name:        "members flag without offer",
			row:         productRow(1, OfferColumns{MembersOnly: boolPtr(true)}),
			expectError: true,
			errorMsg:    "partial offer columns",
		},
		{
			name:        "stored offer no longer discounts",
			row:         productRow(1, discountOffer("12")),
			expectError: true,
			errorMsg:    "does not provide a discount",
		},
		{
			name: "negative stock",
			row: func() ProductRow {
				r := productRow(1, OfferColumns{})
				r.InStock = -1
				return r
			}(),
			expectError: true,
			errorMsg:    "stock",
		},
		{
			name: "fractional discrete amount",
			row: func() ProductRow {
				r := productRow(1, OfferColumns{})
				r.AmountPerUnit = dec("0.5")
				return r
			}(),
			expectError: true,
			errorMsg:    "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := BuildOverview(tt.row)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInconsistentRow)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectOffer, p.SpecialOffer != nil)
			if tt.expectOffer {
				assert.True(t, p.SpecialOffer.Discount.Equal(dec("0.2")))
			}
		})
	}
}

func TestBuildOverviewOfferLimit(t *testing.T) {
	cols := discountOffer("8")
	cols.LimitPerCustomer = i64(3)
	p, err := BuildOverview(productRow(1, cols))
	require.NoError(t, err)
	require.NotNil(t, p.SpecialOffer.LimitPerCustomer)
	assert.Equal(t, uint32(3), *p.SpecialOffer.LimitPerCustomer)

	cols.LimitPerCustomer = i64(0)
	_, err = BuildOverview(productRow(1, cols))
	assert.ErrorIs(t, err, ErrInconsistentRow)
}

func TestOfferLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     *int64
		expect    *uint32
		expectErr error
	}{
		{name: "null is unlimited"},
		{name: "positive", limit: i64(5), expect: u32(5)},
		{name: "int32 max", limit: i64(math.MaxInt32), expect: u32(math.MaxInt32)},
		{name: "zero", limit: i64(0), expectErr: ErrInconsistentRow},
		{name: "negative", limit: i64(-2), expectErr: ErrInconsistentRow},
		{name: "above int32", limit: i64(math.MaxInt32 + 1), expectErr: ErrInconsistentRow},
		{name: "above uint32", limit: i64(math.MaxUint32 + 7), expectErr: ErrInconsistentRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OfferLimit(9, tt.limit)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func infoRow() ProductInfoRow {
	food := domain.CategoryID(1)
	return ProductInfoRow{
		ID:              7,
		Name:            "Cheddar",
		Thumbnail:       "/img/cheddar.png",
		Price:           dec("5"),
		InStock:         10,
		AmountPerUnit:   dec("0.25"),
		MeasurementUnit: strPtr("kg"),
		Category:        2,
		Ancestors: []tree.CategoryRow{
			{ID: 2, Parent: &food, Name: "Cheese"},
			{ID: 1, Name: "Food"},
		},
		AverageRating: decimal.NewNullDecimal(dec("4.5")),
		RatingCount:   2,
	}
}

func TestBuildInfo(t *testing.T) {
	info, err := BuildInfo(infoRow())
	require.NoError(t, err)

	assert.Equal(t, []string{"/img/cheddar.png"}, info.Gallery, "empty gallery falls back to thumbnail")
	assert.Equal(t, []tree.CategorySegment{{ID: 1, Name: "Food"}, {ID: 2, Name: "Cheese"}}, info.Category)
	assert.Equal(t, "4.5", info.Rating.String())
	assert.Equal(t, "0.25 kg", info.AmountPerUnit.String())
	assert.Nil(t, info.OwnRating)
	assert.Nil(t, info.SpecialOffer)
}

func TestBuildInfoErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInfoRow)
	}{
		{name: "missing category ancestor", mutate: func(r *ProductInfoRow) { r.Ancestors = r.Ancestors[:1] }},
		{name: "rating without count", mutate: func(r *ProductInfoRow) { r.RatingCount = 0 }},
		{name: "count without rating", mutate: func(r *ProductInfoRow) { r.AverageRating = decimal.NullDecimal{} }},
		{name: "own rating out of range", mutate: func(r *ProductInfoRow) { v := int32(9); r.OwnRating = &v }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := infoRow()
			tt.mutate(&row)
			_, err := BuildInfo(row)
			require.Error(t, err)
			assert.True(t, tree.IsConsistency(err) || errors.Is(err, ErrInconsistentRow))
		})
	}
}

func TestSortByDiscount(t *testing.T) {
	rows := []ProductRow{
		productRow(1, OfferColumns{}),
		productRow(2, discountOffer("9")),
		productRow(3, discountOffer("5")),
		productRow(4, OfferColumns{}),
		productRow(5, discountOffer("9")),
		productRow(6, OfferColumns{
			Repr:        deal.Repr{Quantity1: i64(2), Quantity2: i64(1)},
			MembersOnly: boolPtr(true),
		}),
	}
	products, err := BuildOverviews(rows)
	require.NoError(t, err)

	// shuffle away from id order
	products[0], products[4] = products[4], products[0]

	SortByDiscount(products, ByProductID)

	got := make([]domain.ProductID, len(products))
	for i, p := range products {
		got[i] = p.ID
	}
	assert.Equal(t, []domain.ProductID{3, 6, 2, 5, 1, 4}, got)
}

func reviewRow(id domain.ReviewID, votes int64, minute int) ReviewRow {
	return ReviewRow{
		ID:             id,
		Customer:       domain.CustomerID(100 + id),
		Username:       "reviewer",
		ProfilePicture: "/r.png",
		Rating:         4,
		CreatedAt:      now.Add(time.Duration(minute) * time.Minute),
		VoteSum:        votes,
	}
}

func commentOn(id domain.CommentID, review domain.ReviewID) tree.CommentRow {
	return tree.CommentRow{
		ID:              id,
		Review:          review,
		ReviewAuthor:    domain.CustomerID(100 + review),
		Author:          domain.UserID(100 + review),
		Username:        "reviewer",
		Role:            domain.RoleCustomer,
		CustomerPicture: strPtr("/r.png"),
		CreatedAt:       now,
	}
}

func TestAssembleReviews(t *testing.T) {
	reviews := []ReviewRow{reviewRow(1, 0, 0), reviewRow(2, 5, 3), reviewRow(3, 0, -1)}
	comments := []tree.CommentRow{commentOn(10, 1), commentOn(11, 2)}

	out, err := AssembleReviews(reviews, comments)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, domain.ReviewID(2), out[0].ID)
	assert.Equal(t, domain.ReviewID(3), out[1].ID)
	assert.Equal(t, domain.ReviewID(1), out[2].ID)

	require.Len(t, out[0].Comments, 1)
	assert.True(t, out[0].Comments[0].Role.OriginalPoster)
	assert.Empty(t, out[1].Comments)
	assert.NotNil(t, out[1].Comments)
}

func TestAssembleReviewsOrphanComment(t *testing.T) {
	_, err := AssembleReviews([]ReviewRow{reviewRow(1, 0, 0)}, []tree.CommentRow{commentOn(10, 9)})
	assert.ErrorIs(t, err, tree.ErrDanglingParent)
}

func TestAssembleReviewsAs(t *testing.T) {
	own := reviewRow(1, 2, 0)
	like := domain.Like
	other := reviewRow(2, 1, 0)
	other.OwnVote = &like

	view, err := AssembleReviewsAs(&own, []ReviewRow{other}, []tree.CommentRow{commentOn(10, 1), commentOn(11, 2)})
	require.NoError(t, err)

	require.NotNil(t, view.Own)
	assert.Equal(t, domain.ReviewID(1), view.Own.ID)
	assert.Len(t, view.Own.Comments, 1)
	require.Len(t, view.Reviews, 1)
	assert.Equal(t, domain.Like, *view.Reviews[0].OwnVote)

	view, err = AssembleReviewsAs(nil, []ReviewRow{other}, nil)
	require.NoError(t, err)
	assert.Nil(t, view.Own)
}

func TestGroupOrders(t *testing.T) {
	earlier := now.Add(-time.Hour)
	rows := []PurchaseRow{
		{Product: 1, Time: now, Paid: dec("10"), Number: 2, AmountPerUnit: dec("1")},
		{Product: 2, Time: now, Paid: dec("2.50"), Number: 1, AmountPerUnit: dec("1")},
		{Product: 3, Time: earlier, Paid: dec("7"), Number: 1, AmountPerUnit: dec("0.5"), MeasurementUnit: strPtr("l")},
	}

	orders, err := GroupOrders(rows)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Len(t, orders[0].Purchases, 2)
	assert.True(t, orders[0].Price().Equal(dec("12.5")))
	assert.True(t, orders[1].Time.Equal(earlier))

	empty, err := GroupOrders(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	_, err = GroupOrders([]PurchaseRow{{Product: 1, Time: now, Number: 0, AmountPerUnit: dec("1")}})
	assert.ErrorIs(t, err, ErrInconsistentRow)
}

func TestQuoteCart(t *testing.T) {
	limit := uint32(1)
	until := now.Add(time.Hour)
	expired := now.Add(-time.Minute)

	lines := []CartLine{
		{
			Product: 1, Name: "Batch", Number: 7, Price: dec("4"),
			Offer: &deal.SpecialOffer{Deal: deal.Batch(3, 2), ValidFrom: now.Add(-time.Hour), ValidUntil: &until},
		},
		{
			Product: 2, Name: "Limited", Number: 7, Price: dec("4"),
			Offer: &deal.SpecialOffer{Deal: deal.Batch(3, 2), LimitPerCustomer: &limit, ValidFrom: now},
		},
		{
			Product: 3, Name: "Expired", Number: 2, Price: dec("3"),
			Offer: &deal.SpecialOffer{Deal: deal.Discount(dec("1")), ValidFrom: now.Add(-time.Hour), ValidUntil: &expired},
		},
		{Product: 4, Name: "Plain", Number: 1, Price: dec("1.5")},
	}

	id := uuid.MustParse("5f1d7c2e-8a4b-4c3d-9e6f-0a1b2c3d4e5f")
	q := QuoteCart(id, lines, false, now)

	assert.Equal(t, id, q.ID)
	assert.Equal(t, now, q.QuotedAt)
	require.Len(t, q.Lines, 4)
	assert.True(t, q.Lines[0].Final.Equal(dec("20")))
	assert.Equal(t, uint32(2), q.Lines[0].Uses)
	assert.True(t, q.Lines[1].Final.Equal(dec("24")))
	assert.Equal(t, uint32(1), q.Lines[1].Uses)
	assert.True(t, q.Lines[2].Final.Equal(dec("6")))
	assert.Nil(t, q.Lines[2].Deal)
	assert.True(t, q.Total.Equal(dec("51.5")))
	assert.True(t, q.Undiscounted.Equal(dec("63.5")))
	assert.True(t, q.Savings.Equal(dec("12")))

	again := QuoteCart(id, lines, false, now)
	assert.Equal(t, q, again)
}
