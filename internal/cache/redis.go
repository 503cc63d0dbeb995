// Package cache provides the Redis client and cache key helpers.
package cache

import (
	"context"
	"log/slog"
	"time"

	"homestash/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis connects to Redis at the given address. The client is left nil
// when the connection fails; all cache paths tolerate a nil client.
func InitRedis(addr string) {
	client = redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		observability.Logger.Warn("Redis connection failed, continuing without cache",
			slog.String("error", err.Error()))
		client = nil
	} else {
		observability.Logger.Info("Redis connected successfully")
	}
}

// GetClient returns the Redis client, or nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection if one was established.
func Close() {
	if client != nil {
		_ = client.Close()
	}
}
