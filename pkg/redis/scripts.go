package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Owner-checked lock scripts: a worker never touches a lock that another
// worker has since taken over.
var (
	deleteIfValue = redis.NewScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`)
	expireIfValue = redis.NewScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("PEXPIRE", KEYS[1], ARGV[2]) end return 0`)
)

// FixedWindowAllow counts one hit against scope and reports whether the
// count is still within limit for the current window.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s, err := c.cmds()
	if err != nil {
		return false, 0, err
	}
	counter := c.RateLimitKey(scope)
	hits, err := s.Incr(ctx, counter).Result()
	if err != nil {
		return false, 0, err
	}
	// The first hit opens the window.
	if hits == 1 && window > 0 {
		if err := s.Expire(ctx, counter, window).Err(); err != nil {
			return false, hits, err
		}
	}
	return hits <= limit, hits, nil
}

// CompareAndDelete removes key only while it still holds expected.
func (c *Client) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	return c.runOwned(ctx, deleteIfValue, key, expected)
}

// CompareAndExpire resets the TTL of key only while it still holds expected.
func (c *Client) CompareAndExpire(ctx context.Context, key, expected string, ttl time.Duration) (bool, error) {
	return c.runOwned(ctx, expireIfValue, key, expected, ttl.Milliseconds())
}

func (c *Client) runOwned(ctx context.Context, script *redis.Script, key string, args ...any) (bool, error) {
	if c.raw == nil {
		return false, errNotInitialized
	}
	n, err := script.Run(ctx, c.raw, []string{key}, args...).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
