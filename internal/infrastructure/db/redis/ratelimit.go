package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrExpireScript counts a hit and starts the window on the first one. It
// returns the count and the remaining window in milliseconds.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimiter is a fixed-window counter shared by every API replica.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, max: max, window: window}
}

func (l *RateLimiter) Limit() int {
	return l.max
}

// Allow records a hit for key. It reports whether the hit fits in the window,
// how many hits remain, and how long until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Duration, error) {
	res, err := incrExpireScript.Run(ctx, l.client, []string{"rl:" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return true, l.max, 0, fmt.Errorf("rate limit: %w", err)
	}
	if len(res) != 2 {
		return true, l.max, 0, fmt.Errorf("rate limit: unexpected script reply %v", res)
	}
	count, pttl := int(res[0]), res[1]

	reset := time.Duration(0)
	if pttl > 0 {
		reset = time.Duration(pttl) * time.Millisecond
	}
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.max, remaining, reset, nil
}
