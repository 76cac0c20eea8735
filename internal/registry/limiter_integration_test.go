//go:build integration

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/pkg/testutil/containers"
)

func TestRedisLimiterFixedWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	l := NewRedisLimiter(rc.Client, 2, time.Minute)
	fixed := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	for range 2 {
		ok, err := l.Allow(ctx, "acct:1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "acct:1")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := rc.Client.Keys(ctx, "rollcall:lookup:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	ttl, err := rc.Client.TTL(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	fixed = fixed.Add(time.Minute)
	ok, err = l.Allow(ctx, "acct:1")
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")
}
