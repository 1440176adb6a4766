package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBucket is a per-user, per-action limiter evaluated atomically in Lua.
type TokenBucket struct {
	RDB      *redis.Client
	capacity int64
	refill   int64
	window   time.Duration
	now      func() time.Time
}

func NewTokenBucket(rdb *redis.Client, capacity, refillPerMinute int64) *TokenBucket {
	return &TokenBucket{
		RDB:      rdb,
		capacity: capacity,
		refill:   refillPerMinute,
		window:   time.Minute,
		now:      time.Now,
	}
}

func (tb *TokenBucket) Capacity() int64 { return tb.capacity }

var allowScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
if tokens_to_add > 0 then
  tokens = math.min(capacity, tokens + tokens_to_add)
  last_refill = now
end

local allowed = 0
if tokens > 0 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
redis.call('EXPIRE', key, window * 2)
return {allowed, tokens}
`)

// Allow consumes one token and returns whether the action may proceed and what remains.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, int64, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", userID, action)
	res, err := allowScript.Run(ctx, tb.RDB, []string{key},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected result from rate limit script")
	}
	return res[0] == 1, res[1], nil
}

func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.RDB.Del(ctx, fmt.Sprintf("rate_limit:%s:%s", userID, action)).Err()
}
