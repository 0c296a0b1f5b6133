package revocation

import (
	"context"
	"cyberslate/esports-api/internal/testutil"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Revoke(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	r := NewRegistry(rdb)
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "tok", time.Hour))
	require.NoError(t, r.Revoke(ctx, "tok", time.Hour))

	revoked, err = r.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	v, err := mr.Get("blacklist:tok")
	require.NoError(t, err)
	assert.Equal(t, "revoked", v)
	assert.Equal(t, time.Hour, mr.TTL("blacklist:tok"))

	mr.FastForward(time.Hour + time.Second)
	revoked, err = r.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRegistry_RevokeNonPositiveTTL(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	r := NewRegistry(rdb)

	require.NoError(t, r.Revoke(context.Background(), "tok", 0))
	assert.True(t, mr.Exists("blacklist:tok"))
}

func TestRegistry_RevokeAll(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	r := NewRegistry(rdb)
	ctx := context.Background()

	tokens := make([]string, 20)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
	}

	n, err := r.RevokeAll(ctx, tokens, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, len(tokens), n)

	for _, tok := range tokens {
		revoked, err := r.IsRevoked(ctx, tok)
		require.NoError(t, err)
		assert.True(t, revoked, tok)
	}

	n, err = r.RevokeAll(ctx, nil, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistry_RevokeAllStoreDown(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	r := NewRegistry(rdb)

	mr.SetError("LOADING")

	n, err := r.RevokeAll(context.Background(), []string{"a", "b"}, time.Minute)
	require.Error(t, err)
	assert.Zero(t, n)

	_, err = r.IsRevoked(context.Background(), "a")
	assert.Error(t, err)
}

func TestRegistry_RevokeAllPartialFailure(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	rdb.AddHook(testutil.FailingHook{
		Match: func(cmd redis.Cmder) bool {
			args := cmd.Args()
			return cmd.Name() == "set" && len(args) > 1 && args[1] == "blacklist:tok-3"
		},
		Err: errors.New("set rejected"),
	})

	r := NewRegistry(rdb)
	ctx := context.Background()

	tokens := make([]string, 10)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
	}

	n, err := r.RevokeAll(ctx, tokens, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, len(tokens)-1, n)

	for _, tok := range tokens {
		if tok == "tok-3" {
			assert.False(t, mr.Exists("blacklist:"+tok))
			continue
		}

		revoked, err := r.IsRevoked(ctx, tok)
		require.NoError(t, err)
		assert.True(t, revoked, tok)
	}
}
