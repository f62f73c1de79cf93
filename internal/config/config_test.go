package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "auto_service")

	cfg := Load()
	require.Equal(t, "test", cfg.Env)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "root", cfg.DBUser)
	require.Empty(t, cfg.DBPass)
	require.Equal(t, "auto_service", cfg.DBName)
}

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, 30*time.Second, cfg.TTL)
	require.Equal(t, "cache", cfg.Prefix)
	require.Equal(t, 1048576, cfg.MaxBodyBytes)
}

func TestLoadCacheConfigOverrides(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_TTL", "2m")
	cfg := LoadCacheConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, 2*time.Minute, cfg.TTL)
}

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	require.Equal(t, 1, cfg.Capacity)
	require.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, 60, cfg.Capacity)
	require.Equal(t, 1, cfg.RefillTokens)
	require.Equal(t, time.Second, cfg.RefillInterval)
	require.Equal(t, 10*time.Minute, cfg.TTL)
}
