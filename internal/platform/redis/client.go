// Package redis wraps the go-redis client used as the organization name
// cache. The cache is optional; callers must tolerate a nil client, and
// every helper on Client is safe to call on nil.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"syfooversiktsrv/internal/platform/config"
)

// Client wraps the go-redis client with nil-safe helpers and health checking.
type Client struct {
	*redis.Client
}

// New connects a client from the provided configuration, or returns nil when
// no URL is configured. Connection failure at startup is an error: a broken
// cache address is a deployment mistake, not a runtime degradation.
func New(cfg config.Redis) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// GetString reads a cached string value. A nil client, a miss or any cache
// error all report a miss.
func (c *Client) GetString(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	value, err := c.Get(ctx, key).Result()
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

// SetString writes a string value with a TTL. No-op on a nil client.
func (c *Client) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	return c.Set(ctx, key, value, ttl).Err()
}

// Health reports whether the connection is usable.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Ping(ctx).Err()
}

// Close releases the connection pool. No-op on a nil client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.Client.Close()
}
