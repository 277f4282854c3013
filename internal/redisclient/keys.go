package redisclient

import "fmt"

// RedisPrefix is the prefix for all Redis keys of the catalog API
const RedisPrefix = "catalog:"

// CategoryForestKey returns the Redis key holding the serialized category forest
func CategoryForestKey() string {
	return RedisPrefix + "categories:forest"
}

// OfferKey returns the Redis key of an idempotency key used to create a
// special offer
func OfferKey(key string) string {
	return fmt.Sprintf("%soffer-key:%s", RedisPrefix, key)
}

// QuoteKey returns the Redis key of a stored cart quote
func QuoteKey(id string) string {
	return fmt.Sprintf("%squote:%s", RedisPrefix, id)
}
