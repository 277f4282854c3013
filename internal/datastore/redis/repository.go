// Package redis caches assembled read models that change rarely.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-engine-go/internal/catalog"
	"catalog-engine-go/internal/datastore"
	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/redisclient"
	"catalog-engine-go/internal/tree"
)

// Repository provides Redis operations for the application
type Repository struct {
	client    *redis.Client
	forestTTL time.Duration
}

// NewRepository creates a new Redis repository. forestTTL bounds how stale
// a cached category forest may get.
func NewRepository(client *redis.Client, forestTTL time.Duration) *Repository {
	return &Repository{
		client:    client,
		forestTTL: forestTTL,
	}
}

// CategoryForest returns the cached forest. ok is false on a miss.
func (r *Repository) CategoryForest(ctx context.Context) ([]tree.CategoryTree, bool, error) {
	data, err := r.client.Get(ctx, redisclient.CategoryForestKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read category forest: %w", err)
	}

	var forest []tree.CategoryTree
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, false, fmt.Errorf("failed to decode category forest: %w", err)
	}
	return forest, true, nil
}

// SetCategoryForest stores a freshly built forest.
func (r *Repository) SetCategoryForest(ctx context.Context, forest []tree.CategoryTree) error {
	data, err := json.Marshal(forest)
	if err != nil {
		return fmt.Errorf("failed to encode category forest: %w", err)
	}
	if err := r.client.Set(ctx, redisclient.CategoryForestKey(), data, r.forestTTL).Err(); err != nil {
		return fmt.Errorf("failed to write category forest: %w", err)
	}
	return nil
}

// InvalidateCategoryForest drops the cached forest.
func (r *Repository) InvalidateCategoryForest(ctx context.Context) error {
	if err := r.client.Del(ctx, redisclient.CategoryForestKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate category forest: %w", err)
	}
	return nil
}

// SaveQuote keeps a cart quote for ttl so that checkout can honor it.
func (r *Repository) SaveQuote(ctx context.Context, q catalog.CartQuote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}
	if err := r.client.Set(ctx, redisclient.QuoteKey(q.ID.String()), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write quote %s: %w", q.ID, err)
	}
	return nil
}

// Quote returns a saved cart quote. ok is false when it expired or never
// existed.
func (r *Repository) Quote(ctx context.Context, id string) (catalog.CartQuote, bool, error) {
	var q catalog.CartQuote
	data, err := r.client.Get(ctx, redisclient.QuoteKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return q, false, nil
	}
	if err != nil {
		return q, false, fmt.Errorf("failed to read quote %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return q, false, fmt.Errorf("failed to decode quote %s: %w", id, err)
	}
	return q, true, nil
}

// claimOfferKeyScript atomically looks up an idempotency key and claims it.
// Returns:
//   - the stored offer if a request with this key already finished
//   - an empty string if the key was claimed by this call
//   - nil if another request holds the claim
//
// The claim expires after ARGV[1] seconds so a crashed request does not
// hold the key forever.
const claimOfferKeyScript = `
local key = KEYS[1]

local offer = redis.call('HGET', key, 'offer')
if offer then
    return offer
end

if redis.call('HSETNX', key, '_lock', '1') == 1 then
    redis.call('EXPIRE', key, ARGV[1])
    return ''
end
return false
`

// offerClaimTTL bounds how long a claimed key stays locked without a result.
const offerClaimTTL = 30 * time.Second

// ClaimOfferKey claims an idempotency key for creating a special offer. If a
// request with the key already completed, its offer is returned with found
// set. datastore.ErrKeyInFlight means another request holds the key.
func (r *Repository) ClaimOfferKey(ctx context.Context, key string) (offer deal.SpecialOffer, found bool, err error) {
	res, err := r.client.Eval(ctx, claimOfferKeyScript,
		[]string{redisclient.OfferKey(key)}, int(offerClaimTTL.Seconds())).Text()
	if errors.Is(err, redis.Nil) {
		return offer, false, fmt.Errorf("offer key %q: %w", key, datastore.ErrKeyInFlight)
	}
	if err != nil {
		return offer, false, fmt.Errorf("idempotency check failed: %w", err)
	}
	if res == "" {
		return offer, false, nil
	}

	if err := json.Unmarshal([]byte(res), &offer); err != nil {
		return offer, false, fmt.Errorf("failed to decode offer for key %q: %w", key, err)
	}
	return offer, true, nil
}

// CompleteOfferKey records the offer created under a claimed key and keeps
// it for ttl.
func (r *Repository) CompleteOfferKey(ctx context.Context, key string, offer deal.SpecialOffer, ttl time.Duration) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("failed to encode offer: %w", err)
	}

	redisKey := redisclient.OfferKey(key)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, redisKey, "offer", data)
	pipe.HDel(ctx, redisKey, "_lock")
	pipe.Expire(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete offer key %q: %w", key, err)
	}
	return nil
}

// ReleaseOfferKey drops a claim whose request failed, so that the client
// may retry with the same key.
func (r *Repository) ReleaseOfferKey(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisclient.OfferKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release offer key %q: %w", key, err)
	}
	return nil
}
