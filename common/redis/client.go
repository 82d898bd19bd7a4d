package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/config"
)

const pingTimeout = 3 * time.Second

// NewRedisClient connects and verifies the server answers within pingTimeout.
// On failure no client is returned.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Close tolerates a nil client.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
