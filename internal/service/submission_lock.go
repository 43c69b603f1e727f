package service

import (
	"context"
	"hash/fnv"
	"peer_quiz_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SubmissionLocker 按键互斥。唯一索引才是最终保证，锁只用来让并发提交排队
type SubmissionLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

const lockStripes = 64

// LocalLocker 单实例部署使用的分段锁
type LocalLocker struct {
	stripes [lockStripes]chan struct{}
	wait    time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	l := &LocalLocker{wait: wait}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	h := fnv.New32a()
	h.Write([]byte(key))
	ch := l.stripes[h.Sum32()%lockStripes]

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, util.ErrLockTimeout
	}
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 多实例部署时基于 SET NX 的分布式锁
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := "peer_quiz:lock:" + key
	token := uuid.New().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// 释放时不使用请求 ctx，避免请求取消后锁残留到 TTL
				_ = unlockScript.Run(context.Background(), l.rdb, []string{redisKey}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, util.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
