// Package storagetest открывает мигрированную базу SQLite в памяти для тестов.
package storagetest

import (
	"adminpanel/internal/config"
	"adminpanel/internal/storage"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// New возвращает пустую базу с актуальной схемой. База закрывается по окончании теста.
func New(t *testing.T) *storage.Database {
	t.Helper()

	cfg := &config.Config{DBDriver: config.DriverSQLite, DatabaseURL: ":memory:"}
	logger := zap.NewNop()

	db, err := storage.Open(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, storage.Migrate(context.Background(), db.GetDB(), logger))
	return db
}
