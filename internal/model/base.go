// Package model содержит базовые модели и интерфейсы.
//
// Группа: BASE - Базовые компоненты
// Содержит: Timestamps, Repository[T]
package model

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Timestamps представляет временные метки записи
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// BeforeAppendModel проставляет временные метки перед INSERT и UPDATE
func (t *Timestamps) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()

	switch query.(type) {
	case *bun.InsertQuery:
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
	case *bun.UpdateQuery:
		t.UpdatedAt = now
	}

	return nil
}

// Repository представляет базовый интерфейс репозитория
type Repository[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id int64) error
}
