package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/gateway/pkg/limits/ratelimit"
)

// fixedWindowScript applies Window.Advance to a hash {start, count}.
// ARGV: now (unix ms), window (ms), limit. Returns {start, count, admitted}.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local start = tonumber(redis.call('HGET', key, 'start'))
local count = tonumber(redis.call('HGET', key, 'count'))

if start == nil or count == nil or ((now - start) > 0 and (now - start) >= window) then
	redis.call('HSET', key, 'start', now, 'count', 1)
	redis.call('PEXPIRE', key, window)
	return {now, 1, 1}
end

if count < limit then
	count = redis.call('HINCRBY', key, 'count', 1)
	return {start, count, 1}
end

return {start, count, 0}
`)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Address is the Redis server "host:port".
	Address string

	// Password is optional.
	Password string

	// DB selects the Redis database.
	DB int

	// KeyPrefix namespaces window keys.
	// Default: "gateway:ratelimit"
	KeyPrefix string

	// DialTimeout bounds connection setup and the startup ping.
	// Default: 5s
	DialTimeout time.Duration
}

// RedisStore implements ratelimit.Store on Redis.
// Windows expire in Redis via PEXPIRE, so Sweep has nothing to do.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ratelimit.Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "gateway:ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(clientID string) string {
	return s.prefix + ":" + clientID
}

// Hit runs the fixed-window script for key.
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, p ratelimit.Policy) (ratelimit.Window, bool, error) {
	res, err := fixedWindowScript.Run(ctx, s.client,
		[]string{s.key(key)},
		now.UnixMilli(), p.Window.Milliseconds(), p.Limit,
	).Int64Slice()
	if err != nil {
		return ratelimit.Window{}, false, fmt.Errorf("redis window update: %w", err)
	}
	if len(res) != 3 {
		return ratelimit.Window{}, false, fmt.Errorf("redis window update: unexpected reply length %d", len(res))
	}

	w := ratelimit.Window{
		Start: time.UnixMilli(res[0]),
		Count: int(res[1]),
	}
	return w, res[2] == 1, nil
}

// Sweep is a no-op; Redis expires idle windows.
func (s *RedisStore) Sweep(context.Context, time.Time, ratelimit.Policy, time.Duration) (int, error) {
	return 0, nil
}

// Len is unknown for Redis.
func (s *RedisStore) Len() int {
	return -1
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
