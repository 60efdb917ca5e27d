package cache

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
)

// Connect initialises the Redis client from REDIS_ADDR / REDIS_PASSWORD.
// Returns nil when REDIS_ADDR is unset so callers can run without a cache.
func Connect() (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
