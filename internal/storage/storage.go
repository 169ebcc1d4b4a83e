// Package storage содержит работу с базой данных.
package storage

import (
	"adminpanel/internal/config"
	"adminpanel/internal/model"
	"adminpanel/internal/storage/repository"
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

// Database представляет подключение к базе данных
type Database struct {
	db     *bun.DB
	driver string
	logger *zap.Logger
}

// Open открывает базу данных выбранного драйвера
func Open(cfg *config.Config, logger *zap.Logger) (*Database, error) {
	var (
		db  *bun.DB
		err error
	)

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err = openPostgres(cfg, logger)
	case config.DriverSQLite:
		db, err = openSQLite(cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	// Добавляем отладку в режиме разработки
	if logger.Core().Enabled(zap.DebugLevel) {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	return New(db, cfg.DBDriver, logger), nil
}

// New оборачивает готовое подключение
func New(db *bun.DB, driver string, logger *zap.Logger) *Database {
	return &Database{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// Close закрывает соединение с базой данных
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB возвращает подключение к базе данных
func (d *Database) GetDB() *bun.DB {
	return d.db
}

// Driver возвращает имя драйвера
func (d *Database) Driver() string {
	return d.driver
}

// Ping проверяет подключение к базе данных
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// GetUserRepository возвращает репозиторий пользователей
func (d *Database) GetUserRepository() model.UserRepository {
	return repository.NewUserRepository(d.db, d.logger)
}

// GetNotificationRepository возвращает репозиторий уведомлений
func (d *Database) GetNotificationRepository() model.NotificationRepository {
	return repository.NewNotificationRepository(d.db, d.logger)
}
