package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DistLock 基于 SetNX 的分布式互斥锁，服务层通过接口持有
type DistLock struct {
	ttl time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

func NewDistLock(ttl time.Duration) *DistLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DistLock{
		ttl:    ttl,
		tokens: make(map[string]string),
	}
}

// Acquire 不重试，拿不到锁立即返回 false
func (l *DistLock) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := TryLock(ctx, key, token, l.ttl, 1)
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *DistLock) Release(ctx context.Context, key string) {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if ok {
		UnLock(ctx, key, token)
	}
}
