// Package redis wraps the go-redis client with connection verification.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisopts "github.com/campus-io/study-buddy/pkg/options/redis"
)

// Client wraps a go-redis client.
type Client struct {
	rdb  *redis.Client
	opts *redisopts.Options
}

// New creates a Redis client and verifies the connection.
func New(opts *redisopts.Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a Redis client, using ctx for the initial ping.
func NewWithContext(ctx context.Context, opts *redisopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("redis options is nil")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.Database,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{rdb: rdb, opts: opts}, nil
}

// RDB returns the underlying go-redis client.
func (c *Client) RDB() *redis.Client {
	return c.rdb
}

// Ping checks that the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
