package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/pkg/cache"
)

// Without Redis every call degrades to a miss and Remember always computes.
func TestDisconnectedCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	cache.RDB = nil

	var out string
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, cache.Del(ctx, "k"))
	assert.NoError(t, cache.Bump(ctx, "gen"))
	assert.Equal(t, int64(0), cache.Version(ctx, "gen"))
}

func TestRememberComputesOnMiss(t *testing.T) {
	ctx := context.Background()
	cache.RDB = nil

	calls := 0
	var out []string
	err := cache.Remember(ctx, "products:v0", "products", time.Minute, &out, func() (interface{}, error) {
		calls++
		return []string{"sofa", "poltrona"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"sofa", "poltrona"}, out)
}

func TestRememberPropagatesErrors(t *testing.T) {
	cache.RDB = nil

	boom := errors.New("db down")
	var out []string
	err := cache.Remember(context.Background(), "k", "products", time.Minute, &out, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}
