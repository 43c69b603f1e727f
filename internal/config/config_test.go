package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
  dbname: quiz.db
jwt:
  secret: short
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "quiz.db", cfg.Database.DBName)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 10*time.Second, cfg.Quiz.LockTTL())
	assert.Equal(t, 3*time.Second, cfg.Quiz.LockWait())
	assert.Equal(t, 600, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 30, cfg.RateLimit.SubmitPerMinute)
	assert.Equal(t, 600, cfg.CORS.MaxAgeSeconds)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
	assert.False(t, cfg.Redis.Enabled)
}

func TestRateLimitWindow(t *testing.T) {
	assert.Equal(t, time.Minute, RateLimitConfig{}.Window())
	assert.Equal(t, 5*time.Minute, RateLimitConfig{WindowMinutes: 5}.Window())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: mysql
quiz:
  lock_wait_millis: 250
`)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Quiz.LockWait())
}

func TestLoadConfigReleaseRequiresStrongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
`)
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "JWT secret is too short")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
