package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottle enforces a minimum interval between actions sharing a key.
// A key is held with SET NX and expires on its own once the window passes.
type RedisThrottle struct {
	client *redis.Client
	prefix string
}

// NewRedisThrottle returns a throttle whose keys are namespaced under prefix.
func NewRedisThrottle(client *redis.Client, prefix string) *RedisThrottle {
	return &RedisThrottle{client: client, prefix: prefix}
}

// Acquire reports whether the caller may proceed. It returns false while a previous
// acquisition of the same key is still inside its window.
func (t *RedisThrottle) Acquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	return t.client.SetNX(ctx, t.prefix+key, time.Now().Unix(), window).Result()
}

// Release drops the key early so the next Acquire succeeds immediately.
func (t *RedisThrottle) Release(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}
