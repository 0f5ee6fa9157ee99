package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_FailsOpenWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	l := NewRateLimiter(client, 5, time.Minute)
	allowed, remaining, _, err := l.Allow(context.Background(), "login:1.2.3.4")
	assert.Error(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, 5, l.Limit())
}

func TestRateLimiter_BlocksPastMax(t *testing.T) {
	srv, client := newTestClient(t)
	l := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, remaining, reset, err := l.Allow(ctx, "login:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d", i)
		assert.Equal(t, 3-i, remaining)
		assert.Greater(t, reset, time.Duration(0))
		assert.LessOrEqual(t, reset, time.Minute)
	}

	allowed, remaining, _, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	got, err := srv.Get("rl:login:10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "4", got)

	// other keys have their own window
	allowed, _, _, err = l.Allow(ctx, "login:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_WindowResetsAfterExpiry(t *testing.T) {
	srv, client := newTestClient(t)
	l := NewRateLimiter(client, 1, time.Minute)
	ctx := context.Background()

	allowed, _, _, err := l.Allow(ctx, "register:10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)
	allowed, _, _, err = l.Allow(ctx, "register:10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	// the window is set on the first hit only; later hits must not extend it
	assert.Equal(t, time.Minute, srv.TTL("rl:register:10.0.0.1"))

	srv.FastForward(time.Minute)
	assert.False(t, srv.Exists("rl:register:10.0.0.1"))

	allowed, remaining, reset, err := l.Allow(ctx, "register:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, time.Minute, reset)
}
