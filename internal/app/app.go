// Package app содержит основную логику приложения.
package app

import (
	"adminpanel/internal/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cleanupInterval период очистки окон rate limit и debounce
const cleanupInterval = 5 * time.Minute

// App представляет HTTP приложение админки
type App struct {
	config     *config.Config
	logger     *zap.Logger
	components *Components
	server     *http.Server
	wg         sync.WaitGroup
}

// New создает приложение через фабрику компонентов
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	factory := NewComponentFactory(cfg, logger)
	db, err := factory.CreateDatabase(ctx)
	if err != nil {
		return nil, err
	}
	components, err := factory.CreateComponents(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		config:     cfg,
		logger:     logger,
		components: components,
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           NewRouter(components, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	logger.Info("Application created successfully")
	return app, nil
}

// Handler возвращает корневой HTTP обработчик
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Start запускает HTTP сервер и блокируется до отмены контекста
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.components.Middleware.StartCleanup(ctx, cleanupInterval)

	serverErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	case runErr = <-serverErr:
		a.logger.Error("HTTP server failed", zap.Error(runErr))
	}

	if err := a.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Stop останавливает сервер, дожидаясь активных запросов, и закрывает базу
func (a *App) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.GracefulShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
	}
	a.wg.Wait()

	if err := a.components.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	a.logger.Info("Application stopped")
	return errors.Join(errs...)
}
