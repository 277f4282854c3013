package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	HTTPHost         string
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// Database configuration
	PostgresURL       string
	PostgresMaxConns  int
	RedisURL          string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisMaxRetries   int
	RedisDialTimeout  time.Duration

	// Catalog configuration
	CategoryCacheTTL  time.Duration
	CacheWarmSchedule string
	QuoteTTL          time.Duration
	IdempotencyTTL    time.Duration
	DefaultPageSize   int
	MaxPageSize       int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogFile   string

	// Application metadata
	Environment string
	AppName     string
	AppVersion  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		HTTPHost:          getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:   getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout:  getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 20*time.Second),
		PostgresURL:       getEnv("POSTGRES_URL", ""),
		PostgresMaxConns:  getEnvInt("POSTGRES_MAX_CONNS", 10),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		RedisMinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		RedisMaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
		RedisDialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		CategoryCacheTTL:  getEnvDuration("CATEGORY_CACHE_TTL", 5*time.Minute),
		CacheWarmSchedule: getEnv("CACHE_WARM_SCHEDULE", "@every 4m"),
		QuoteTTL:          getEnvDuration("QUOTE_TTL", 15*time.Minute),
		IdempotencyTTL:    getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		DefaultPageSize:   getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:       getEnvInt("MAX_PAGE_SIZE", 100),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogFile:           getEnv("LOG_FILE", ""),
		Environment:       getEnv("ENV", "development"),
		AppName:           "catalog-engine",
		AppVersion:        getEnv("APP_VERSION", "dev"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	// PostgresURL is required for production
	if c.PostgresURL == "" && c.Environment == "production" {
		return fmt.Errorf("POSTGRES_URL is required in production")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json/console)", c.LogFormat)
	}

	if c.DefaultPageSize <= 0 || c.MaxPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE (%d) exceeds MAX_PAGE_SIZE (%d)", c.DefaultPageSize, c.MaxPageSize)
	}

	if c.PostgresMaxConns <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNS must be positive")
	}

	if c.RedisPoolSize <= 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive")
	}
	if c.RedisMinIdleConns < 0 || c.RedisMinIdleConns > c.RedisPoolSize {
		return fmt.Errorf("REDIS_MIN_IDLE_CONNS (%d) must be between 0 and REDIS_POOL_SIZE (%d)", c.RedisMinIdleConns, c.RedisPoolSize)
	}
	// go-redis reads -1 as "no retries".
	if c.RedisMaxRetries < -1 {
		return fmt.Errorf("REDIS_MAX_RETRIES must be -1 or more")
	}

	return nil
}

// CacheWarmEnabled reports whether the category cache is refreshed on a
// schedule. "off" disables it.
func (c *Config) CacheWarmEnabled() bool {
	return c.CacheWarmSchedule != "off"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.HTTPHost + ":" + c.HTTPPort
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal
		}
		return i
	}
	return defaultVal
}

// getEnvDuration retrieves a duration environment variable or returns a default value
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return defaultVal
		}
		return d
	}
	return defaultVal
}
