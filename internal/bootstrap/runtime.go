// Package bootstrap wires the runtime dependencies shared by the server
// and the seeding tool.
package bootstrap

import (
	"fmt"

	"homestash/internal/cache"
	"homestash/internal/config"
	"homestash/internal/database"
	"homestash/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to the database and Redis and optionally seeds the
// predefined categories. Redis being unreachable yields a nil client, not
// an error; the app degrades to running without cache and rate limits.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedBuiltIns {
		if err := seed.PredefinedCategories(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed predefined categories: %w", err)
		}
	}

	return db, r, nil
}
