package database

import (
	"context"
	"peer_quiz_backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(&config.RedisConfig{Host: "cache", Port: 6380, DB: 2, PoolSize: 40})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 40, opts.PoolSize)
	assert.Equal(t, 10, opts.MinIdleConns)
	assert.Equal(t, redisPingTimeout, opts.DialTimeout)

	opts = redisOptions(&config.RedisConfig{Host: "cache", Port: 6379, PoolSize: 2})
	assert.Equal(t, 1, opts.MinIdleConns)

	opts = redisOptions(&config.RedisConfig{Host: "cache", Port: 6379})
	assert.Equal(t, 20, opts.PoolSize)
}

func TestInitRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rdb, err := InitRedis(ctx, &config.RedisConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
	assert.Nil(t, rdb)
	assert.ErrorContains(t, err, "ping redis 127.0.0.1:1")
}
