package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// defineBucket resets a bucket to full. Times are milliseconds from the server clock.
var defineBucket = redis.NewScript(`
local now = redis.call('TIME')
local now_ms = tonumber(now[1]) * 1000 + math.floor(tonumber(now[2]) / 1000)
local window = tonumber(ARGV[2])
redis.call('HSET', KEYS[1],
	'capacity', ARGV[1],
	'tokens', ARGV[1],
	'window', window,
	'refill_at', now_ms + window)
return 1
`)

// takeToken restores the full capacity once per elapsed window, then consumes one
// token. Returns -1 when the bucket does not exist, 1 when taken, 0 when empty.
var takeToken = redis.NewScript(`
local b = redis.call('HMGET', KEYS[1], 'capacity', 'tokens', 'window', 'refill_at')
if not b[1] then
	return -1
end
local capacity = tonumber(b[1])
local tokens = tonumber(b[2])
local window = tonumber(b[3])
local refill_at = tonumber(b[4])
local now = redis.call('TIME')
local now_ms = tonumber(now[1]) * 1000 + math.floor(tonumber(now[2]) / 1000)
if now_ms >= refill_at then
	local periods = math.floor((now_ms - refill_at) / window) + 1
	tokens = capacity
	refill_at = refill_at + periods * window
end
local taken = 0
if tokens >= 1 then
	tokens = tokens - 1
	taken = 1
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'refill_at', refill_at)
return taken
`)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store, shared by
// every server instance. Each bucket is a Redis hash updated by a Lua script so
// token accounting is atomic across clients.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed bucket store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "bucket:",
	}
}

func (r *RateLimitRedisStore) Define(ctx context.Context, key string, capacity int64, window time.Duration) error {
	return defineBucket.Run(ctx, r.client, []string{r.prefix + key}, capacity, window.Milliseconds()).Err()
}

func (r *RateLimitRedisStore) Take(ctx context.Context, key string) (bool, bool, error) {
	result, err := takeToken.Run(ctx, r.client, []string{r.prefix + key}).Int64()
	if err != nil {
		return false, false, err
	}

	if result < 0 {
		return false, false, nil
	}

	return result == 1, true, nil
}
