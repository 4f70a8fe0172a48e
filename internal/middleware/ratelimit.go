package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript implements an atomic sliding-window counter over a
// Redis sorted set. Expired members are pruned, the window is counted, and
// the request is admitted only when under the limit.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', key .. ':counter', window_ms)
		return 1
	end

	return 0
`)

// RateLimit throttles requests per client IP using Redis. A nil client
// disables throttling entirely, so deployments without Redis keep working.
func RateLimit(client *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return c.Next()
		}

		now := time.Now()
		key := fmt.Sprintf("ratelimit:%s:%s", c.Path(), c.IP())

		allowed, err := slidingWindowScript.Run(c.Context(), client,
			[]string{key},
			now.UnixMilli(),
			now.Add(-window).UnixMilli(),
			limit,
			window.Milliseconds(),
		).Int()
		if err != nil {
			// Redis being down must not lock everyone out.
			return c.Next()
		}

		if allowed == 0 {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, try again later")
		}

		return c.Next()
	}
}
