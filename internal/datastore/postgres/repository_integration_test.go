//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"catalog-engine-go/internal/config"
	"catalog-engine-go/internal/datastore"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
)

// setupRepository starts a Postgres container, applies the schema and loads
// the fixtures below.
func setupRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("catalog"),
		tcpostgres.WithUsername("catalog"),
		tcpostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := NewClient(ctx, &config.Config{PostgresURL: url, PostgresMaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	require.NoError(t, client.ApplySchema(ctx))
	_, err = client.Pool().Exec(ctx, fixtures)
	require.NoError(t, err, "failed to load fixtures")

	return NewRepository(client)
}

const fixtures = `
INSERT INTO users (id, username, email, role) VALUES
	(1, 'alice', 'alice@example.com', 'customer'),
	(2, 'bob', 'bob@example.com', 'customer'),
	(3, 'greengrocer', 'shop@example.com', 'vendor');

INSERT INTO customers (id, profile_picture, is_member) VALUES
	(1, 'alice.png', TRUE),
	(2, 'bob.png', FALSE);

INSERT INTO vendors (id, display_name, profile_picture) VALUES
	(3, 'Green Grocer', 'shop.png');

INSERT INTO categories (id, parent, name) VALUES
	(1, NULL, 'Food'),
	(2, 1, 'Vegetables'),
	(3, 2, 'Roots');

INSERT INTO products (id, vendor, category, name, thumbnail, price, overview, description,
	in_stock, amount_per_unit, measurement_unit, origin, visible, created_at) VALUES
	(1, 3, 3, 'Carrots', 'carrots.png', 10.00, 'Crunchy', 'Orange roots', 50, 1.00, 'kg', 'NL', TRUE, now() - interval '2 days'),
	(2, 3, 2, 'Leeks', 'leeks.png', 4.00, 'Green', 'Long stems', 20, 0.50, 'kg', 'BE', TRUE, now() - interval '1 day'),
	(3, 3, 2, 'Cabbage', 'cabbage.png', 3.00, 'Round', 'Heavy', 0, 1.00, NULL, 'DE', TRUE, now()),
	(4, 3, 2, 'Secret', 'secret.png', 9.00, 'Hidden', 'Hidden', 5, 1.00, NULL, 'DE', FALSE, now());

INSERT INTO special_offers (id, product, new_price, quantity1, quantity2, members_only, limit_per_customer, valid_from) VALUES
	(1, 1, NULL, 3, 2, FALSE, NULL, now() - interval '1 hour'),
	(2, 2, 3.00, NULL, NULL, TRUE, 2, now() - interval '1 hour');
SELECT setval('special_offers_id_seq', 2);

INSERT INTO ratings (customer, product, rating) VALUES
	(1, 1, 5),
	(2, 1, 3);

INSERT INTO reviews (id, product, customer, title, content) VALUES
	(1, 1, 1, 'Great', 'Sweet and crunchy'),
	(2, 1, 2, 'Fine', 'A bit small');

INSERT INTO review_votes (review, user_id, grade) VALUES
	(2, 1, 'like'),
	(2, 3, 'like'),
	(1, 2, 'dislike');

INSERT INTO comments (id, review, parent, user_id, content) VALUES
	(1, 2, NULL, 3, 'Next batch is bigger'),
	(2, 2, 1, 2, 'Thanks');

INSERT INTO orders (customer, product, time, number, paid, special_offer, amount_per_unit, measurement_unit) VALUES
	(1, 1, '2026-01-02 10:00:00+00', 3, 20.00, 1, 1.00, 'kg'),
	(1, 2, '2026-01-02 10:00:00+00', 1, 4.00, NULL, 0.50, 'kg');

INSERT INTO shopping_cart_items (customer, product, number) VALUES
	(1, 1, 7),
	(1, 2, 3);
`

func customerID(v domain.CustomerID) *domain.CustomerID { return &v }

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repo := setupRepository(t)
	ctx := context.Background()

	t.Run("categories", func(t *testing.T) {
		rows, err := repo.CategoryRows(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Nil(t, rows[0].Parent)
		assert.Equal(t, "Food", rows[0].Name)
	})

	t.Run("newest products skip hidden and sold out", func(t *testing.T) {
		rows, err := repo.NewestProducts(ctx, customerID(1), 10, 0)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.ProductID(2), rows[0].ID)
		assert.Equal(t, domain.ProductID(1), rows[1].ID)
		assert.True(t, rows[0].Offer.Repr.NewPrice.Valid)
	})

	t.Run("offered products", func(t *testing.T) {
		rows, err := repo.OfferedProducts(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("product info with ancestry", func(t *testing.T) {
		info, err := repo.ProductInfo(ctx, customerID(1), 1)
		require.NoError(t, err)
		assert.Equal(t, "Carrots", info.Name)
		assert.Len(t, info.Ancestors, 3)
		assert.Equal(t, int64(2), info.RatingCount)
		assert.True(t, info.HasPurchased)
		require.NotNil(t, info.OwnRating)
		assert.Equal(t, int32(5), *info.OwnRating)

		_, err = repo.ProductInfo(ctx, nil, 99)
		assert.ErrorIs(t, err, datastore.ErrNotFound)
	})

	t.Run("reviews split out the viewer's own", func(t *testing.T) {
		page, err := repo.ProductReviews(ctx, 1, customerID(1), 10, 0)
		require.NoError(t, err)
		require.NotNil(t, page.Own)
		assert.Equal(t, domain.CustomerID(1), page.Own.Customer)
		assert.Equal(t, int64(-1), page.Own.VoteSum)
		require.Len(t, page.Reviews, 1)
		assert.Equal(t, int64(2), page.Reviews[0].VoteSum)
		require.NotNil(t, page.Reviews[0].OwnVote)
		assert.Len(t, page.Comments, 2)
	})

	t.Run("special offers may not overlap", func(t *testing.T) {
		offer := deal.SpecialOffer{
			Product:   1,
			Deal:      deal.Discount(decimal.RequireFromString("8.00")),
			ValidFrom: time.Now().UTC(),
		}
		_, err := repo.CreateSpecialOffer(ctx, offer)
		assert.ErrorIs(t, err, datastore.ErrOfferOverlap)

		until := time.Now().UTC().Add(24 * time.Hour)
		offer.Product = 3
		offer.Deal = deal.Discount(decimal.RequireFromString("2.50"))
		offer.ValidUntil = &until
		id, err := repo.CreateSpecialOffer(ctx, offer)
		require.NoError(t, err)
		assert.Equal(t, domain.SpecialOfferID(3), id)
	})

	t.Run("purchases", func(t *testing.T) {
		rows, err := repo.Purchases(ctx, 1, 10, 0)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, rows[0].SpecialOfferUsed)
		assert.Equal(t, "Green Grocer", rows[0].VendorName)
	})

	t.Run("cart", func(t *testing.T) {
		lines, member, err := repo.Cart(ctx, 1)
		require.NoError(t, err)
		assert.True(t, member)
		require.Len(t, lines, 2)
		assert.Equal(t, "Carrots", lines[0].Name)
		require.NotNil(t, lines[0].Offer)
		assert.Equal(t, uint32(1), lines[0].UsedBefore)
		require.NotNil(t, lines[1].Offer)
		assert.True(t, lines[1].Offer.MembersOnly)

		_, _, err = repo.Cart(ctx, 42)
		assert.ErrorIs(t, err, datastore.ErrNotFound)
	})
}
