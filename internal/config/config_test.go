package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "DATA_FILE", "DB_PATH", "DB_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD",
		"CACHE_ENABLED", "CACHE_TTL", "GRPC_PORT", "GRPC_REFLECTION_ENABLED", "HTTP_PORT",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
		"REDIS_DB", "REDIS_PREFIX", "GRPC_RECOVERY_ENABLED",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadFromEnv()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "detaileddata.xlsx", cfg.DataFile)
	assert.Equal(t, "file:perfdash?mode=memory&cache=shared", cfg.DBPath)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 2*time.Minute, cfg.DBConnMaxIdleTime)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "perfdash:", cfg.RedisPrefix)
	assert.True(t, cfg.GRPCRecoveryEnabled)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.False(t, cfg.GRPCReflectionEnabled)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_FILE", "/data/q3.xlsx")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("GRPC_PORT", "6000")
	t.Setenv("GRPC_REFLECTION_ENABLED", "1")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "8")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "30s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_PREFIX", "q3:")
	t.Setenv("GRPC_RECOVERY_ENABLED", "false")

	cfg := LoadFromEnv()

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "/data/q3.xlsx", cfg.DataFile)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 6000, cfg.GRPCPort)
	assert.True(t, cfg.GRPCReflectionEnabled)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 8, cfg.DBMaxOpenConns)
	assert.Equal(t, 30*time.Second, cfg.DBConnMaxIdleTime)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "q3:", cfg.RedisPrefix)
	assert.False(t, cfg.GRPCRecoveryEnabled)
}

func TestLoadFromEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "sometimes")
	t.Setenv("CACHE_TTL", "-5m")
	t.Setenv("GRPC_PORT", "grpc")
	t.Setenv("HTTP_PORT", "80a")

	cfg := LoadFromEnv()

	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{AppEnv: "production"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger(&Config{AppEnv: "development"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
