//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aidaptics/lead-relay/ratelimit/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsStore_Integration(t *testing.T) {
	ctx := context.Background()
	addr, cleanup := SetupRedisContainer(t, ctx)
	defer cleanup()

	client, err := redis.Connect(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	store := redis.NewStatsStore(client, redis.WithTTL(time.Hour))

	t.Run("success - counts allowed and denied", func(t *testing.T) {
		runCtx, stop := context.WithCancel(ctx)
		defer stop()
		go store.Run(runCtx)

		for i := 0; i < 3; i++ {
			require.NoError(t, store.Record(ctx, "typeform", true))
		}
		store.ObserveDecision(ctx, "typeform", false)

		assert.Eventually(t, func() bool {
			allowed, denied, err := store.Totals(ctx, "typeform")
			return err == nil && allowed == 3 && denied == 1
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("success - minute buckets expire", func(t *testing.T) {
		require.NoError(t, store.Record(ctx, "leads", true))

		key := fmt.Sprintf("ratelimit:stats:leads:minute:%s", time.Now().UTC().Format("200601021504"))
		ttl := keyTTL(t, addr, key)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Hour)
	})

	t.Run("error - connect to nothing", func(t *testing.T) {
		_, err := redis.Connect(ctx, "127.0.0.1:1", "", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connecting to Redis")
	})
}
