package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("shop lock not acquired")
)

// Locker serializes the compute-next-slot-then-commit critical section per
// shop, so two kiosks cannot both claim the same slot.
type Locker interface {
	WithShopLock(ctx context.Context, shopID string, fn func(ctx context.Context) error) error
}

type redisShopLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisShopLocker creates a locker that uses a per shop Redis key
func NewRedisShopLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisShopLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisShopLocker) WithShopLock(ctx context.Context, shopID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:shop:%s", shopID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire shop lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisShopLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release shop lock: %w", err)
	}
	return nil
}
