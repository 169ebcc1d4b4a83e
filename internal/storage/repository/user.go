// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"adminpanel/internal/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserRepository реализует интерфейс model.UserRepository
type UserRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

var _ model.UserRepository = (*UserRepository)(nil)

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db bun.IDB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID возвращает пользователя по ID. Если пользователь не найден, возвращает nil.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user := new(model.User)

	err := r.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by ID: %w", err)
	}

	return user, nil
}

// GetByEmail возвращает пользователя по email (нечувствительно к регистру)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user := new(model.User)

	err := r.db.NewSelect().
		Model(user).
		Where("LOWER(u.email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return user, nil
}

// Create создает нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.TrimSpace(user.Email)

	_, err := r.db.NewInsert().
		Model(user).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

// Delete удаляет пользователя
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*model.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// Count возвращает количество пользователей
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*model.User)(nil)).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// CountCreatedSince возвращает количество пользователей, созданных начиная с since
func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	count, err := r.db.NewSelect().
		Model((*model.User)(nil)).
		Where("u.created_at >= ?", since.UTC()).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count new users: %w", err)
	}

	return count, nil
}

// IDs возвращает идентификаторы всех пользователей
func (r *UserRepository) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64

	err := r.db.NewSelect().
		Model((*model.User)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)

	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}

	return ids, nil
}
