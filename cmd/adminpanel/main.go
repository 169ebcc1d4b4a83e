// Package main запускает HTTP сервер админки.
package main

import (
	"adminpanel/internal/app"
	"adminpanel/internal/config"
	"adminpanel/pkg/logger"
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{}).Fatal("Failed to load configuration", zap.Error(err))
	}

	// Инициализация логгера
	log := logger.New(logger.Options{Level: cfg.LogLevel, AppDataDir: cfg.GetAppDataDir()})
	defer func() { _ = log.Sync() }()

	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create application", zap.Error(err))
	}

	if err := application.Start(ctx); err != nil {
		log.Error("Application stopped with error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}
