// Package datastore holds what the storage backends share.
package datastore

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOfferOverlap is returned when a new special offer would run at the
	// same time as an existing one on the same product.
	ErrOfferOverlap = errors.New("special offer overlaps an existing offer")

	// ErrKeyInFlight is returned when another request holding the same
	// idempotency key has not finished.
	ErrKeyInFlight = errors.New("a request with this idempotency key is in progress")
)
