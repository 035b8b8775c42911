package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker is a Locker for multi-replica deployments: SetNX with a TTL,
// polled until acquired or the context ends. The TTL bounds how long a
// crashed holder can wedge a session.
type RedisLocker struct {
	Rdb       *redis.Client
	TTL       time.Duration
	PollEvery time.Duration
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{Rdb: rdb, TTL: 2 * time.Minute, PollEvery: 50 * time.Millisecond}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := "chat:lock:" + key
	for {
		ok, err := l.Rdb.SetNX(ctx, lockKey, "1", l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
		}
		if ok {
			return func() { l.Rdb.Del(context.Background(), lockKey) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.PollEvery):
		}
	}
}
