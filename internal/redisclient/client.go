// Package redisclient provides a Redis client wrapper with connection pooling
// for the catalog API.
package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"catalog-engine-go/internal/config"
)

// Client owns the pooled connection shared by the catalog cache and the
// readiness check.
type Client struct {
	client *redis.Client
}

// NewClient parses REDIS_URL and applies the pool settings from config on
// top of whatever the URL carries. No connection is made until first use.
func NewClient(cfg *config.Config) (*Client, error) {
	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: redis.NewClient(opt)}, nil
}

// Options builds the go-redis options for cfg.
func Options(cfg *config.Config) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.RedisPoolSize > 0 {
		opt.PoolSize = cfg.RedisPoolSize
	}
	if cfg.RedisMinIdleConns > 0 {
		opt.MinIdleConns = cfg.RedisMinIdleConns
	}
	if cfg.RedisMaxRetries != 0 {
		opt.MaxRetries = cfg.RedisMaxRetries
	}
	if cfg.RedisDialTimeout > 0 {
		opt.DialTimeout = cfg.RedisDialTimeout
	}
	return opt, nil
}

// Ping performs a health check on the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// GetRedis returns the underlying redis.Client for direct access
func (c *Client) GetRedis() *redis.Client {
	return c.client
}
