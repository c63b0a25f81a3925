package redis

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/klabs/account-service/internal/infra/config"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, settings config.RedisSettings) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Password: settings.Password,
		DB:       settings.DB,
	}
	if settings.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
