package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DataFile              string
	DBPath                string
	DBDriver              string
	DBMaxOpenConns        int
	DBMaxIdleConns        int
	DBConnMaxLifetime     time.Duration
	DBConnMaxIdleTime     time.Duration
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RedisPrefix           string
	CacheEnabled          bool
	CacheTTL              time.Duration
	GRPCPort              int
	GRPCReflectionEnabled bool
	GRPCRecoveryEnabled   bool
	HTTPPort              int
}

// LoadFromEnv loads configuration from environment variables. Malformed
// numbers, booleans and durations fall back to their defaults.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DataFile:              getEnv("DATA_FILE", "detaileddata.xlsx"),
		DBPath:                getEnv("DB_PATH", "file:perfdash?mode=memory&cache=shared"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		DBMaxOpenConns:        getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:        getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:     getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBConnMaxIdleTime:     getEnvDuration("DB_CONN_MAX_IDLE_TIME", 2*time.Minute),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		RedisPrefix:           getEnv("REDIS_PREFIX", "perfdash:"),
		CacheEnabled:          getEnvBool("CACHE_ENABLED", false),
		CacheTTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		GRPCRecoveryEnabled:   getEnvBool("GRPC_RECOVERY_ENABLED", true),
		HTTPPort:              getEnvInt("HTTP_PORT", 8080),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
