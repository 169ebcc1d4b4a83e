// Package app содержит фабрику компонентов приложения.
package app

import (
	"adminpanel/internal/config"
	"adminpanel/internal/middleware"
	"adminpanel/internal/resources"
	"adminpanel/internal/service"
	"adminpanel/internal/storage"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Components собранные компоненты приложения
type Components struct {
	DB            *storage.Database
	Users         *resources.UserEngine
	Notifications *resources.NotificationEngine
	Inbox         *service.NotificationService
	Dashboard     *service.DashboardService
	Middleware    *middleware.Middleware
}

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(config *config.Config, logger *zap.Logger) *ComponentFactory {
	return &ComponentFactory{
		config: config,
		logger: logger,
	}
}

// CreateDatabase открывает базу, применяет схему и создает суперпользователя
func (f *ComponentFactory) CreateDatabase(ctx context.Context) (*storage.Database, error) {
	db, err := storage.Open(f.config, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if f.config.MigrateOnStart {
		if err := storage.Migrate(ctx, db.GetDB(), f.logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if _, err := storage.EnsureSuperuser(ctx, db.GetUserRepository(), f.config, f.logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to seed superuser: %w", err)
	}

	f.logger.Info("Database initialized", zap.String("driver", db.Driver()))
	return db, nil
}

// CreateComponents создает движки ресурсов, сервисы и middleware поверх базы
func (f *ComponentFactory) CreateComponents(db *storage.Database) (*Components, error) {
	registry := resources.NewRegistry()

	users, err := resources.NewUserEngine(db.GetDB(), registry, f.config.SuperuserID, f.config.PerPage, f.config.MaxPerPage, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user resource: %w", err)
	}
	notifications, err := resources.NewNotificationEngine(db.GetDB(), registry, f.config.PerPage, f.config.MaxPerPage, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification resource: %w", err)
	}

	location := f.config.LoadLocation(f.logger)

	return &Components{
		DB:            db,
		Users:         users,
		Notifications: notifications,
		Inbox:         service.NewNotificationService(db.GetNotificationRepository(), db.GetUserRepository(), f.logger),
		Dashboard:     service.NewDashboardService(db.GetUserRepository(), db.GetNotificationRepository(), location, f.logger),
		Middleware:    middleware.New(f.config, db.GetUserRepository(), f.logger),
	}, nil
}
