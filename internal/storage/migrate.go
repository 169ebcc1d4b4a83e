package storage

import (
	"adminpanel/internal/model"
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// tableModels модели, для которых создаются таблицы, в порядке зависимостей
var tableModels = []interface{}{
	(*model.User)(nil),
	(*model.Notification)(nil),
}

// indexes индексы, которые создаются после таблиц
var indexes = []struct {
	name    string
	model   interface{}
	columns []string
	unique  bool
}{
	{name: "users_email_unique", model: (*model.User)(nil), columns: []string{"email"}, unique: true},
	{name: "users_sort_index", model: (*model.User)(nil), columns: []string{"sort"}},
	{name: "notifications_user_id_index", model: (*model.Notification)(nil), columns: []string{"user_id"}},
	{name: "notifications_read_at_index", model: (*model.Notification)(nil), columns: []string{"user_id", "read_at"}},
}

// Migrate создает таблицы и индексы, если они еще не существуют
func Migrate(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range tableModels {
			q := tx.NewCreateTable().
				Model(m).
				IfNotExists().
				WithForeignKeys()
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", m, err)
			}
		}

		for _, idx := range indexes {
			q := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Column(idx.columns...).
				IfNotExists()
			if idx.unique {
				q = q.Unique()
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Database schema is up to date", zap.Int("tables", len(tableModels)))
	return nil
}
