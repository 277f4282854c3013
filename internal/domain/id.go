package domain

import (
	"fmt"
	"strconv"
)

// Identifiers are stored as 32-bit integers. Each entity gets its own
// nominal type so that a customer id can never be passed where a vendor id is
// expected; the user-kind ids only convert through an explicit User() call.

// UserID identifies any user regardless of role.
type UserID int32

// CustomerID identifies a customer.
type CustomerID int32

// VendorID identifies a vendor.
type VendorID int32

// AdministratorID identifies a site administrator. There is no administrator
// table, so the only use is widening to UserID.
type AdministratorID int32

// ProductID identifies a product.
type ProductID int32

// CategoryID identifies a category.
type CategoryID int32

// ReviewID identifies a review.
type ReviewID int32

// CommentID identifies a comment on a review.
type CommentID int32

// SpecialOfferID identifies a special offer.
type SpecialOfferID int32

// User widens a customer id to a generic user id.
func (id CustomerID) User() UserID { return UserID(id) }

// User widens a vendor id to a generic user id.
func (id VendorID) User() UserID { return UserID(id) }

// User widens an administrator id to a generic user id.
func (id AdministratorID) User() UserID { return UserID(id) }

func parseRawID(kind, s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q: %w", kind, s, err)
	}
	return int32(v), nil
}

// ParseCustomerID parses a decimal customer id.
func ParseCustomerID(s string) (CustomerID, error) {
	v, err := parseRawID("customer", s)
	return CustomerID(v), err
}

// ParseProductID parses a decimal product id.
func ParseProductID(s string) (ProductID, error) {
	v, err := parseRawID("product", s)
	return ProductID(v), err
}

// ParseCategoryID parses a decimal category id.
func ParseCategoryID(s string) (CategoryID, error) {
	v, err := parseRawID("category", s)
	return CategoryID(v), err
}
