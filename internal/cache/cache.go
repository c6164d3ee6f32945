// Package cache wraps a pooled Redis client used by the analytics
// snapshot store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Client wraps a *redis.Client with a disabled-mode fallback so the
// rest of the system can run entirely in-memory when Redis isn't
// configured.
type Client struct {
	redis *redis.Client
}

// New dials Redis per config. If config.Enabled is false, New returns
// a Client in disabled mode: every method becomes a no-op or error,
// so callers can treat Redis as optional without littering nil checks
// everywhere.
func New(config Config) (*Client, error) {
	if !config.Enabled {
		return &Client{}, nil
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,

		PoolSize:        25,
		MinIdleConns:    5,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{redis: rc}, nil
}

// IsEnabled reports whether this client is backed by a live connection.
func (c *Client) IsEnabled() bool { return c.redis != nil }

// Raw returns the underlying *redis.Client for components (like the
// analytics snapshot store) that need direct access, or nil if disabled.
func (c *Client) Raw() *redis.Client { return c.redis }

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// PoolStats reports connection pool counters, or a disabled marker.
func (c *Client) PoolStats() map[string]string {
	if c.redis == nil {
		return map[string]string{"enabled": "false"}
	}
	stats := c.redis.PoolStats()
	return map[string]string{
		"enabled":     "true",
		"total_conns": fmt.Sprintf("%d", stats.TotalConns),
		"idle_conns":  fmt.Sprintf("%d", stats.IdleConns),
		"stale_conns": fmt.Sprintf("%d", stats.StaleConns),
		"hits":        fmt.Sprintf("%d", stats.Hits),
		"misses":      fmt.Sprintf("%d", stats.Misses),
	}
}
