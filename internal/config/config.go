// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Поддерживаемые драйверы базы данных
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config представляет конфигурацию приложения
type Config struct {
	// Database
	DBDriver       string
	DatabaseURL    string
	MigrateOnStart bool
	Pool           PoolConfig

	// Retry
	RetryConfig RetryConfig

	// HTTP
	HTTPPort                string
	GracefulShutdownTimeout time.Duration

	// Logging
	LogLevel string

	// Timezone
	Timezone string

	// App Data Directory
	AppDataDir string

	// Pagination
	PerPage    int
	MaxPerPage int

	// Superuser
	SuperuserID   int64
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// DebounceWindow минимальный интервал между одинаковыми изменяющими запросами, 0 - выключено
	DebounceWindow time.Duration

	// TrustedProxies адреса и подсети прокси, которым доверяется X-Forwarded-For
	TrustedProxies []string
}

// PoolConfig настройки пула соединений
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RetryConfig представляет конфигурацию retry механизма
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	config := &Config{
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:    getEnv("DB_DSN", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		Pool: PoolConfig{
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		RetryConfig: RetryConfig{
			MaxRetries:        getEnvInt("RETRY_MAX_RETRIES", 5),
			InitialDelay:      getEnvDuration("RETRY_INITIAL_DELAY", 1*time.Second),
			MaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
			BackoffMultiplier: getEnvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0),
		},
		HTTPPort:                getEnv("HTTP_PORT", "8000"),
		GracefulShutdownTimeout: getEnvDuration("GRACEFUL_SHUTDOWN_TIMEOUT", 15*time.Second),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		Timezone:                getEnv("TIMEZONE", "UTC"),
		AppDataDir:              getEnv("APP_DATA_DIR", "./data"),
		PerPage:                 getEnvInt("PER_PAGE", 15),
		MaxPerPage:              getEnvInt("MAX_PER_PAGE", 100),
		SuperuserID:             int64(getEnvInt("SUPERUSER_ID", 1)),
		AdminName:               getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:              getEnv("ADMIN_EMAIL", ""),
		AdminPassword:           getEnv("ADMIN_PASSWORD", ""),
		RateLimitEnabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests:       getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:         getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		DebounceWindow:          getEnvDuration("DEBOUNCE_WINDOW", time.Second),
		TrustedProxies:          getEnvList("TRUSTED_PROXIES"),
	}

	// Валидация обязательных полей
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %s", c.HTTPPort)
	}

	if c.PerPage <= 0 {
		return fmt.Errorf("PER_PAGE must be positive")
	}

	if c.MaxPerPage < c.PerPage {
		return fmt.Errorf("MAX_PER_PAGE must not be less than PER_PAGE")
	}

	if c.SuperuserID <= 0 {
		return fmt.Errorf("SUPERUSER_ID must be positive")
	}

	if c.AdminEmail != "" && len(c.AdminPassword) < 6 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 6 characters when ADMIN_EMAIL is set")
	}

	if c.RateLimitEnabled {
		if c.RateLimitRequests <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid TRUSTED_PROXIES entry: %s", proxy)
			}
		}
	}

	return nil
}

// GetAppDataDir возвращает директорию данных приложения
func (c *Config) GetAppDataDir() string {
	return c.AppDataDir
}

// Addr возвращает адрес HTTP сервера
func (c *Config) Addr() string {
	return ":" + c.HTTPPort
}

// LoadLocation загружает временную зону из конфигурации
func (c *Config) LoadLocation(logger *zap.Logger) *time.Location {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.Error("Failed to load timezone, falling back to UTC",
			zap.String("timezone", c.Timezone),
			zap.Error(err))
		return time.UTC
	}
	logger.Info("Timezone loaded", zap.String("timezone", c.Timezone))
	return loc
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList получает переменную окружения как список через запятую
func getEnvList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
