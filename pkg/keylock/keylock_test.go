package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, time.Second), mr
}

// 同一个key上的临界区不能重叠
func assertMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "video:1:likes")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			// 非原子的读-改-写，只有被锁保护才不会丢更新
			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 20, counter)
}

func TestMemoryLockerMutualExclusion(t *testing.T) {
	l := NewMemoryLocker()
	assertMutualExclusion(t, l)
	assert.Equal(t, 0, l.size(), "释放后锁表应被回收")
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	l := NewMemoryLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLockerHonorsDeadline(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // 重复释放无副作用
	assert.Equal(t, 0, l.size())
}

func TestRedisLockerMutualExclusion(t *testing.T) {
	l, _ := newRedisLocker(t)
	assertMutualExclusion(t, l)
}

func TestRedisLockerHonorsDeadline(t *testing.T) {
	l, mr := newRedisLocker(t)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:k"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("lock:k"))
}

func TestRedisLockerDoesNotReleaseForeignLock(t *testing.T) {
	l, mr := newRedisLocker(t)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// 模拟锁过期后被别人抢到
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:k", "someone-else"))

	unlock()
	got, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
