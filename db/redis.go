package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// NewRedis creates a client for url and waits for the server to answer.
// If it never does the client is still returned: the app starts degraded
// and every Redis backed request fails until the server comes up.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url, %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := Ping(ctx, rdb, pingAttempts, pingDelay); err != nil {
		zap.L().Warn("Redis is unreachable, continuing without it", zap.Error(err))
	}

	return rdb, nil
}

// Ping retries PING up to attempts times, sleeping delay in between
func Ping(ctx context.Context, rdb *redis.Client, attempts int, delay time.Duration) error {
	var err error

	for i := 1; i <= attempts; i++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			zap.L().Info("Connected to redis", zap.Int("attempt", i))
			return nil
		}

		zap.L().Warn("Redis ping failed", zap.Int("attempt", i), zap.Error(err))

		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("redis did not answer after %d attempts, %w", attempts, err)
}
