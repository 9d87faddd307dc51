package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter requires a running Redis on localhost:6379 and uses DB 15.
func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: Redis not available: %v", err)
	}
	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return NewLimiter(client)
}

func TestAllow_WithinAndOverLimit(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:test:", Limit: 3, Window: 30 * time.Second}

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "p1", rule)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := l.Allow(ctx, "p1", rule)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other identifiers have their own window.
	ok, err = l.Allow(ctx, "p2", rule)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_WindowExpires(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:test:", Limit: 1, Window: time.Second}

	ok, _ := l.Allow(ctx, "p4", rule)
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "p4", rule)
	require.False(t, ok)

	time.Sleep(1100 * time.Millisecond)

	ok, err := l.Allow(ctx, "p4", rule)
	require.NoError(t, err)
	assert.True(t, ok)
}
