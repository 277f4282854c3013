package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"catalog-engine-go/internal/catalog"
	"catalog-engine-go/internal/datastore"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

// Repository runs the catalog queries and returns flat rows for the engine
// to assemble.
type Repository struct {
	client *Client
}

// NewRepository creates a new Postgres repository
func NewRepository(client *Client) *Repository {
	return &Repository{
		client: client,
	}
}

// Ping checks if Postgres is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// CategoryRows returns every category, roots first.
func (r *Repository) CategoryRows(ctx context.Context) ([]tree.CategoryRow, error) {
	rows, err := r.client.pool.Query(ctx, `
		SELECT id, parent, name
		FROM categories
		ORDER BY parent NULLS FIRST, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tree.CategoryRow, error) {
		var c tree.CategoryRow
		err := row.Scan(&c.ID, &c.Parent, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return out, nil
}

const overviewColumns = `
	p.id, p.name, p.thumbnail, p.price, p.overview, p.in_stock,
	p.amount_per_unit, p.measurement_unit, v.display_name, p.origin, p.created_at,
	aso.new_price, aso.quantity1, aso.quantity2, aso.members_only, aso.limit_per_customer,
	EXISTS(
		SELECT 1 FROM customer_favorites cf
		WHERE cf.customer = $1 AND cf.product = p.id
	) AS favorited`

func scanProductRow(row pgx.CollectableRow) (catalog.ProductRow, error) {
	var p catalog.ProductRow
	err := row.Scan(
		&p.ID, &p.Name, &p.Thumbnail, &p.Price, &p.Overview, &p.InStock,
		&p.AmountPerUnit, &p.MeasurementUnit, &p.VendorName, &p.Origin, &p.CreatedAt,
		&p.Offer.Repr.NewPrice, &p.Offer.Repr.Quantity1, &p.Offer.Repr.Quantity2,
		&p.Offer.MembersOnly, &p.Offer.LimitPerCustomer,
		&p.Favorited,
	)
	return p, err
}

// NewestProducts returns visible, in-stock products, newest first. customer
// may be nil for anonymous viewers.
func (r *Repository) NewestProducts(ctx context.Context, customer *domain.CustomerID, limit, offset int) ([]catalog.ProductRow, error) {
	rows, err := r.client.pool.Query(ctx, `
		SELECT`+overviewColumns+`
		FROM products p
		JOIN vendors v ON v.id = p.vendor
		LEFT JOIN active_special_offers aso ON aso.product = p.id
		WHERE p.visible AND p.in_stock > 0
		ORDER BY p.created_at DESC, p.id
		LIMIT $2 OFFSET $3`,
		customer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query newest products: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanProductRow)
	if err != nil {
		return nil, fmt.Errorf("failed to scan newest products: %w", err)
	}
	return out, nil
}

// OfferedProducts returns every visible, in-stock product with an active
// offer. The discount ranking needs the deal model, so ordering and paging
// happen in the caller.
func (r *Repository) OfferedProducts(ctx context.Context, customer *domain.CustomerID) ([]catalog.ProductRow, error) {
	rows, err := r.client.pool.Query(ctx, `
		SELECT`+overviewColumns+`
		FROM products p
		JOIN vendors v ON v.id = p.vendor
		JOIN active_special_offers aso ON aso.product = p.id
		WHERE p.visible AND p.in_stock > 0`,
		customer)
	if err != nil {
		return nil, fmt.Errorf("failed to query offered products: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanProductRow)
	if err != nil {
		return nil, fmt.Errorf("failed to scan offered products: %w", err)
	}
	return out, nil
}

// ProductInfo returns the product page row and the product's category
// ancestry.
func (r *Repository) ProductInfo(ctx context.Context, customer *domain.CustomerID, product domain.ProductID) (catalog.ProductInfoRow, error) {
	var p catalog.ProductInfoRow
	err := r.client.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT p.id, p.name, p.gallery, p.thumbnail, p.price, p.description, p.in_stock,
				p.amount_per_unit, p.measurement_unit, p.origin, p.visible, p.created_at, p.updated_at,
				aso.new_price, aso.quantity1, aso.quantity2, aso.members_only, aso.limit_per_customer,
				v.id, v.display_name, p.category,
				(SELECT AVG(rating)::NUMERIC(3, 2) FROM ratings WHERE product = p.id),
				(SELECT COUNT(*) FROM ratings WHERE product = p.id),
				EXISTS(SELECT 1 FROM customer_favorites WHERE customer = $1 AND product = p.id),
				(SELECT rating FROM ratings WHERE customer = $1 AND product = p.id),
				EXISTS(SELECT 1 FROM orders WHERE customer = $1 AND product = p.id)
			FROM products p
			JOIN vendors v ON v.id = p.vendor
			LEFT JOIN active_special_offers aso ON aso.product = p.id
			WHERE p.id = $2`,
			customer, product,
		).Scan(
			&p.ID, &p.Name, &p.Gallery, &p.Thumbnail, &p.Price, &p.Description, &p.InStock,
			&p.AmountPerUnit, &p.MeasurementUnit, &p.Origin, &p.Visible, &p.CreatedAt, &p.UpdatedAt,
			&p.Offer.Repr.NewPrice, &p.Offer.Repr.Quantity1, &p.Offer.Repr.Quantity2,
			&p.Offer.MembersOnly, &p.Offer.LimitPerCustomer,
			&p.VendorID, &p.VendorName, &p.Category,
			&p.AverageRating, &p.RatingCount, &p.Favorited, &p.OwnRating, &p.HasPurchased,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %d: %w", product, datastore.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to query product %d: %w", product, err)
		}

		rows, err := tx.Query(ctx, `
			WITH RECURSIVE ancestry AS (
				SELECT id, parent, name FROM categories WHERE id = $1
				UNION ALL
				SELECT c.id, c.parent, c.name
				FROM categories c
				JOIN ancestry a ON c.id = a.parent
			) CYCLE id SET is_cycle USING path
			SELECT id, parent, name FROM ancestry WHERE NOT is_cycle`,
			p.Category)
		if err != nil {
			return fmt.Errorf("failed to query category ancestry: %w", err)
		}
		p.Ancestors, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (tree.CategoryRow, error) {
			var c tree.CategoryRow
			err := row.Scan(&c.ID, &c.Parent, &c.Name)
			return c, err
		})
		if err != nil {
			return fmt.Errorf("failed to scan category ancestry: %w", err)
		}
		return nil
	})
	return p, err
}

// ProductPrice returns the current base price of a product.
func (r *Repository) ProductPrice(ctx context.Context, product domain.ProductID) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.client.pool.QueryRow(ctx, `SELECT price FROM products WHERE id = $1`, product).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("product %d: %w", product, datastore.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query price of product %d: %w", product, err)
	}
	return price, nil
}

// ProductReviews returns a page of reviews, best voted first, and every
// comment on them. Both queries read one snapshot so that no comment refers
// to a review the page does not have.
func (r *Repository) ProductReviews(ctx context.Context, product domain.ProductID, viewer *domain.CustomerID, limit, offset int) (catalog.ReviewPage, error) {
	var page catalog.ReviewPage
	err := r.client.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT r.id, r.customer, u.username, cu.profile_picture, ra.rating,
				r.created_at, r.updated_at, r.title, r.content,
				COALESCE(SUM(CASE rv.grade WHEN 'like' THEN 1 WHEN 'dislike' THEN -1 END), 0),
				(SELECT grade::TEXT FROM review_votes WHERE review = r.id AND user_id = $2)
			FROM reviews r
			JOIN users u ON u.id = r.customer
			JOIN customers cu ON cu.id = r.customer
			JOIN ratings ra ON ra.product = r.product AND ra.customer = r.customer
			LEFT JOIN review_votes rv ON rv.review = r.id
			WHERE r.product = $1
			GROUP BY r.id, u.username, cu.profile_picture, ra.rating
			ORDER BY r.customer = $2 DESC NULLS LAST, 10 DESC, r.created_at, r.id
			LIMIT $3 OFFSET $4`,
			product, viewer, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to query reviews: %w", err)
		}
		reviews, err := pgx.CollectRows(rows, scanReviewRow)
		if err != nil {
			return fmt.Errorf("failed to scan reviews: %w", err)
		}

		ids := make([]int32, 0, len(reviews))
		for i := range reviews {
			ids = append(ids, int32(reviews[i].ID))
			if viewer != nil && reviews[i].Customer == *viewer {
				own := reviews[i]
				page.Own = &own
				continue
			}
			page.Reviews = append(page.Reviews, reviews[i])
		}
		if len(ids) == 0 {
			return nil
		}

		rows, err = tx.Query(ctx, `
			SELECT c.id, c.parent, c.review, r.customer, c.user_id, u.username, u.role::TEXT,
				cu.profile_picture, ve.profile_picture, c.content, c.created_at, c.updated_at,
				COALESCE(SUM(CASE cv.grade WHEN 'like' THEN 1 WHEN 'dislike' THEN -1 END), 0),
				(SELECT grade::TEXT FROM comment_votes WHERE comment = c.id AND user_id = $2)
			FROM comments c
			JOIN reviews r ON r.id = c.review
			JOIN users u ON u.id = c.user_id
			LEFT JOIN customers cu ON cu.id = c.user_id
			LEFT JOIN vendors ve ON ve.id = c.user_id
			LEFT JOIN comment_votes cv ON cv.comment = c.id
			WHERE c.review = ANY($1)
			GROUP BY c.id, r.customer, u.username, u.role, cu.profile_picture, ve.profile_picture`,
			ids, viewer)
		if err != nil {
			return fmt.Errorf("failed to query comments: %w", err)
		}
		page.Comments, err = pgx.CollectRows(rows, scanCommentRow)
		if err != nil {
			return fmt.Errorf("failed to scan comments: %w", err)
		}
		return nil
	})
	return page, err
}

func scanReviewRow(row pgx.CollectableRow) (catalog.ReviewRow, error) {
	var (
		r    catalog.ReviewRow
		vote *string
	)
	if err := row.Scan(
		&r.ID, &r.Customer, &r.Username, &r.ProfilePicture, &r.Rating,
		&r.CreatedAt, &r.UpdatedAt, &r.Title, &r.Content, &r.VoteSum, &vote,
	); err != nil {
		return r, err
	}
	v, err := parseOwnVote(vote)
	r.OwnVote = v
	return r, err
}

func scanCommentRow(row pgx.CollectableRow) (tree.CommentRow, error) {
	var (
		c    tree.CommentRow
		vote *string
	)
	if err := row.Scan(
		&c.ID, &c.Parent, &c.Review, &c.ReviewAuthor, &c.Author, &c.Username, &c.Role,
		&c.CustomerPicture, &c.VendorPicture, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.VoteSum, &vote,
	); err != nil {
		return c, err
	}
	v, err := parseOwnVote(vote)
	c.OwnVote = v
	return c, err
}

func parseOwnVote(grade *string) (*domain.Vote, error) {
	if grade == nil {
		return nil, nil
	}
	v, err := domain.ParseVote(*grade)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateSpecialOffer stores a validated offer. The overlap check and insert
// share a serializable transaction so that two concurrent inserts cannot
// both succeed.
func (r *Repository) CreateSpecialOffer(ctx context.Context, offer deal.SpecialOffer) (domain.SpecialOfferID, error) {
	repr, ok := offer.Deal.Repr()
	if !ok {
		return 0, fmt.Errorf("deal %s does not fit storage: %w", offer.Deal, deal.ErrOutOfRange)
	}

	var id domain.SpecialOfferID
	err := r.client.inTx(ctx, serializableTx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT valid_from, valid_until
			FROM special_offers
			WHERE product = $1`,
			offer.Product)
		if err != nil {
			return fmt.Errorf("failed to query existing offers: %w", err)
		}
		existing, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (deal.SpecialOffer, error) {
			var o deal.SpecialOffer
			err := row.Scan(&o.ValidFrom, &o.ValidUntil)
			return o, err
		})
		if err != nil {
			return fmt.Errorf("failed to scan existing offers: %w", err)
		}
		for _, o := range existing {
			if offer.Overlaps(o) {
				return fmt.Errorf("product %d: %w", offer.Product, datastore.ErrOfferOverlap)
			}
		}

		var limit *int64
		if offer.LimitPerCustomer != nil {
			l := int64(*offer.LimitPerCustomer)
			limit = &l
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO special_offers
				(product, new_price, quantity1, quantity2, members_only, limit_per_customer, valid_from, valid_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			offer.Product, repr.NewPrice, repr.Quantity1, repr.Quantity2,
			offer.MembersOnly, limit, offer.ValidFrom, offer.ValidUntil,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert special offer: %w", err)
		}
		return nil
	})
	return id, err
}

// Purchases returns a customer's purchases newest first. Paging counts
// purchases, so an order may be split across pages.
func (r *Repository) Purchases(ctx context.Context, customer domain.CustomerID, limit, offset int) ([]catalog.PurchaseRow, error) {
	rows, err := r.client.pool.Query(ctx, `
		SELECT o.product, o.time, o.paid, o.special_offer IS NOT NULL, o.number,
			o.amount_per_unit, o.measurement_unit, p.name, p.thumbnail, v.display_name
		FROM orders o
		JOIN products p ON p.id = o.product
		JOIN vendors v ON v.id = p.vendor
		WHERE o.customer = $1
		ORDER BY o.time DESC, o.product
		LIMIT $2 OFFSET $3`,
		customer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.PurchaseRow, error) {
		var p catalog.PurchaseRow
		err := row.Scan(
			&p.Product, &p.Time, &p.Paid, &p.SpecialOfferUsed, &p.Number,
			&p.AmountPerUnit, &p.MeasurementUnit, &p.ProductName, &p.Thumbnail, &p.VendorName,
		)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan purchases: %w", err)
	}
	return out, nil
}

// Cart returns the cart of a customer with the active offer of every line,
// how often the customer already used it and whether the customer is a
// member.
func (r *Repository) Cart(ctx context.Context, customer domain.CustomerID) ([]catalog.CartLine, bool, error) {
	var (
		lines  []catalog.CartLine
		member bool
	)
	err := r.client.inTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT is_member FROM customers WHERE id = $1`, customer).Scan(&member)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("customer %d: %w", customer, datastore.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to query customer %d: %w", customer, err)
		}

		rows, err := tx.Query(ctx, `
			SELECT p.id, p.name, ci.number, p.price,
				aso.id, aso.new_price, aso.quantity1, aso.quantity2, aso.members_only,
				aso.limit_per_customer, aso.valid_from, aso.valid_until,
				(SELECT COUNT(*) FROM orders o WHERE o.customer = $1 AND o.special_offer = aso.id)
			FROM shopping_cart_items ci
			JOIN products p ON p.id = ci.product
			LEFT JOIN active_special_offers aso ON aso.product = p.id
			WHERE ci.customer = $1
			ORDER BY p.name, p.id`,
			customer)
		if err != nil {
			return fmt.Errorf("failed to query cart: %w", err)
		}
		lines, err = pgx.CollectRows(rows, scanCartLine)
		if err != nil {
			return fmt.Errorf("failed to scan cart: %w", err)
		}
		return nil
	})
	return lines, member, err
}

func scanCartLine(row pgx.CollectableRow) (catalog.CartLine, error) {
	var (
		line        catalog.CartLine
		number      int32
		offerID     *domain.SpecialOfferID
		repr        deal.Repr
		membersOnly *bool
		limit       *int64
		validFrom   *time.Time
		validUntil  *time.Time
		used        int64
	)
	if err := row.Scan(
		&line.Product, &line.Name, &number, &line.Price,
		&offerID, &repr.NewPrice, &repr.Quantity1, &repr.Quantity2, &membersOnly,
		&limit, &validFrom, &validUntil, &used,
	); err != nil {
		return line, err
	}
	if number <= 0 {
		return line, fmt.Errorf("%w: cart line for product %d has %d units", catalog.ErrInconsistentRow, line.Product, number)
	}
	line.Number = uint32(number)
	line.UsedBefore = uint32(min(used, int64(^uint32(0))))

	if offerID == nil {
		return line, nil
	}
	d, ok, err := deal.FromRepr(repr, line.Price)
	if err != nil {
		return line, fmt.Errorf("%w: special offer %d: %w", catalog.ErrInconsistentRow, *offerID, err)
	}
	if !ok || membersOnly == nil || validFrom == nil {
		return line, fmt.Errorf("%w: special offer %d has partial columns", catalog.ErrInconsistentRow, *offerID)
	}
	perCustomer, err := catalog.OfferLimit(line.Product, limit)
	if err != nil {
		return line, err
	}
	line.Offer = &deal.SpecialOffer{
		ID:               *offerID,
		Product:          line.Product,
		Deal:             d,
		MembersOnly:      *membersOnly,
		LimitPerCustomer: perCustomer,
		ValidFrom:        *validFrom,
		ValidUntil:       validUntil,
	}
	return line, nil
}
