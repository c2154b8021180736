package lock

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Only the holder that set the key may delete it
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a lease based lock shared by every replica pointing at the same
// Redis instance. A holder that dies keeps the lock until the lease expires.
type Redis struct {
	c     *redis.Client
	lease time.Duration
	retry time.Duration
}

func NewRedis(c *redis.Client, lease time.Duration) *Redis {
	if lease <= 0 {
		lease = 30 * time.Second
	}

	return &Redis{
		c:     c,
		lease: lease,
		retry: 50 * time.Millisecond,
	}
}

func (r *Redis) Lock(ctx context.Context, name string) (func(), error) {
	key := "photo-api:lock:" + name

	token, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token, %w", err)
	}

	for {
		ok, err := r.c.SetNX(ctx, key, token, r.lease).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s, %w", name, err)
		}

		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := releaseScript.Run(ctx, r.c, []string{key}, token).Err(); err != nil {
					zap.L().Error("Failed to release lock", zap.String("lock", name), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}
}
