package keylock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	keyLockPrefix      = "lock:"
	defaultLockTTL     = 10 * time.Second
	defaultRetryPeriod = 20 * time.Millisecond
)

// 只有持有者本人（token一致）才能删除锁，GET+DEL必须在一个脚本里原子执行
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker 基于 SET NX PX 的分布式锁，多个服务实例之间也能互斥
// ttl 兜底防止持有者崩溃后锁永远不释放
type RedisLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: defaultRetryPeriod}
}

// 加锁：1、生成随机token 2、SET NX PX抢锁 3、没抢到就等待重试，直到ctx结束
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := keyLockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// 释放不能受调用方ctx是否已取消的影响
		_ = releaseScript.Run(context.Background(), l.rdb, []string{lockKey}, token).Err()
	}, nil
}
