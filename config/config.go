package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"placement-storefront/database"
	"placement-storefront/services/enrollment"
	"placement-storefront/services/payment/cashfree"
)

const (
	StorageRedis  = "redis"
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   database.DatabaseConfig
	Redis      RedisConfig
	Session    SessionConfig
	JWT        JWTConfig
	Cashfree   CashfreeConfig
	Enrollment EnrollmentConfig
	RateLimit  RateLimitConfig
	LogLevel   string
}

type ServerConfig struct {
	Port string
	// BackendBaseURL serves both the course catalog and the order endpoints.
	BackendBaseURL string
}

type StorageConfig struct {
	Backend string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

type SessionConfig struct {
	Secret string
	Domain string
	MaxAge int
	Secure bool
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CashfreeConfig struct {
	Environment string
	SDKURL      string
}

type EnrollmentConfig struct {
	PendingTTL time.Duration
}

type RateLimitConfig struct {
	Checkout int
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           env("SERVER_PORT", "8080"),
			BackendBaseURL: env("BACKEND_BASE_URL", "http://localhost:3000"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(env("STORAGE_BACKEND", StorageRedis)),
		},
		Database: database.DatabaseConfig{
			Host:     env("DB_HOST", "localhost:3306"),
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			DBName:   env("DB_NAME", "storefront"),
		},
		Redis: RedisConfig{
			URL: env("REDIS_URL", "redis://localhost:6379/0"),
		},
		Session: SessionConfig{
			Secret: env("SESSION_SECRET", ""),
			Domain: getenv("SESSION_DOMAIN"),
		},
		JWT: JWTConfig{
			Secret: env("JWT_SECRET", ""),
			Issuer: getenv("JWT_ISSUER"),
		},
		Cashfree: CashfreeConfig{
			Environment: env("CASHFREE_ENVIRONMENT", "sandbox"),
			SDKURL:      env("CASHFREE_SDK_URL", cashfree.DefaultSDKURL),
		},
		LogLevel: strings.ToLower(env("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.Redis.WorkerConcurrency, err = atoi(env("WORKER_CONCURRENCY", "2"), "WORKER_CONCURRENCY"); err != nil {
		return nil, err
	}
	if cfg.Session.MaxAge, err = atoi(env("SESSION_MAX_AGE", strconv.Itoa(365*24*3600)), "SESSION_MAX_AGE"); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Checkout, err = atoi(env("RATE_LIMIT_CHECKOUT", "10"), "RATE_LIMIT_CHECKOUT"); err != nil {
		return nil, err
	}
	if cfg.Enrollment.PendingTTL, err = time.ParseDuration(env("PENDING_ENROLLMENT_TTL", enrollment.DefaultTTL.String())); err != nil {
		return nil, fmt.Errorf("invalid PENDING_ENROLLMENT_TTL: %w", err)
	}
	cfg.Session.Secure = env("SESSION_SECURE", "true") != "false"

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageRedis, StorageMySQL, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Enrollment.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_ENROLLMENT_TTL must be positive")
	}
	return nil
}

func atoi(v, key string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
