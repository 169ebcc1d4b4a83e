package storage

import (
	"adminpanel/internal/config"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// openPostgres создает подключение к PostgreSQL с retry логикой
func openPostgres(cfg *config.Config, logger *zap.Logger) (*bun.DB, error) {
	retry := cfg.RetryConfig
	if retry.MaxRetries <= 0 {
		retry.MaxRetries = 1
	}
	delay := retry.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= retry.MaxRetries; attempt++ {
		logger.Info("Attempting to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", retry.MaxRetries))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseURL)))

		// Настраиваем пул соединений
		sqldb.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
		sqldb.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

		db := bun.NewDB(sqldb, pgdialect.New())

		// Проверяем подключение с таймаутом
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
		lastErr = db.PingContext(pingCtx)
		pingCancel()

		if lastErr == nil {
			logger.Info("Connected to PostgreSQL database with Bun ORM", zap.Int("attempt", attempt))
			return db, nil
		}

		logger.Warn("Failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}

		if attempt == retry.MaxRetries {
			break
		}

		logger.Info("Retrying connection", zap.Duration("delay", delay))
		time.Sleep(delay)
		delay = nextDelay(delay, retry)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retry.MaxRetries, lastErr)
}

// nextDelay увеличивает задержку по экспоненте, не превышая MaxDelay
func nextDelay(delay time.Duration, retry config.RetryConfig) time.Duration {
	if retry.BackoffMultiplier > 1 {
		delay = time.Duration(float64(delay) * retry.BackoffMultiplier)
	}
	if retry.MaxDelay > 0 && delay > retry.MaxDelay {
		delay = retry.MaxDelay
	}
	return delay
}
