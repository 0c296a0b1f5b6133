// Package revocation tracks refresh tokens that must no longer be accepted.
// Entries carry the remaining lifetime of the token so the set never
// outgrows the tokens that could still validate.
package revocation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	keyPrefix = "blacklist:"
	marker    = "revoked"

	// bulk revocations fan out over at most this many concurrent writes
	maxWorkers = 8
)

type Registry struct {
	rdb *redis.Client
}

func NewRegistry(rdb *redis.Client) *Registry {
	return &Registry{rdb: rdb}
}

// Revoke marks token as revoked for ttl. Revoking twice just refreshes
// the entry.
func (r *Registry) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := r.rdb.Set(ctx, keyPrefix+token, marker, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token, %w", err)
	}

	return nil
}

func (r *Registry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation, %w", err)
	}

	return n > 0, nil
}

// RevokeAll revokes every token concurrently. Individual failures are
// logged and counted; an error is returned only when no token could be
// revoked at all.
func (r *Registry) RevokeAll(ctx context.Context, tokens []string, ttl time.Duration) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	var failed atomic.Int64
	p := pool.New().WithMaxGoroutines(maxWorkers).WithErrors()

	for _, t := range tokens {
		t := t
		p.Go(func() error {
			if err := r.Revoke(ctx, t, ttl); err != nil {
				failed.Add(1)
				zap.L().Warn("Failed to revoke refresh token", zap.Error(err))
				return err
			}

			return nil
		})
	}

	err := p.Wait()
	revoked := len(tokens) - int(failed.Load())

	if revoked == 0 {
		return 0, err
	}

	return revoked, nil
}
