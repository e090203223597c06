// Package keylock 提供按key互斥的锁表，用来串行化同一个视频上的“读-改-写”操作
package keylock

import (
	"context"
	"sync"
)

// Locker 按key加锁，返回的unlock必须且只能调用一次
// ctx 到期仍拿不到锁时返回 ctx.Err()
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type entry struct {
	sem  chan struct{} // 容量为1的信号量，比sync.Mutex多了可取消的等待
	refs int
}

// MemoryLocker 进程内的锁表，无人持有或等待的key会被回收
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*entry)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *MemoryLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size 当前锁表中的key数量
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
