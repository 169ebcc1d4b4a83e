package repository

import (
	"adminpanel/internal/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// NotificationRepository реализует интерфейс model.NotificationRepository
type NotificationRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

var _ model.NotificationRepository = (*NotificationRepository)(nil)

// NewNotificationRepository создает новый репозиторий уведомлений
func NewNotificationRepository(db bun.IDB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает уведомление
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.Type == "" {
		n.Type = model.NotificationInfo
	}

	_, err := r.db.NewInsert().
		Model(n).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// CreateMany создает уведомления одним запросом
func (r *NotificationRepository) CreateMany(ctx context.Context, items []*model.Notification) error {
	if len(items) == 0 {
		return nil
	}
	for _, n := range items {
		if n.Type == "" {
			n.Type = model.NotificationInfo
		}
	}

	_, err := r.db.NewInsert().
		Model(&items).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	r.logger.Debug("Notifications created", zap.Int("count", len(items)))
	return nil
}

// GetForUser возвращает уведомление пользователя. Если не найдено, возвращает nil.
func (r *NotificationRepository) GetForUser(ctx context.Context, userID, id int64) (*model.Notification, error) {
	n := new(model.Notification)

	err := r.db.NewSelect().
		Model(n).
		Where("n.id = ?", id).
		Where("n.user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}

	return n, nil
}

// ListForUser возвращает страницу уведомлений пользователя, новые первыми
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, page, perPage int) ([]model.Notification, int, error) {
	var items []model.Notification

	total, err := r.db.NewSelect().
		Model(&items).
		Where("n.user_id = ?", userID).
		Order("n.created_at DESC", "n.id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		ScanAndCount(ctx)

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return items, total, nil
}

// Recent возвращает последние уведомления пользователя
func (r *NotificationRepository) Recent(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	var items []model.Notification

	err := r.db.NewSelect().
		Model(&items).
		Where("n.user_id = ?", userID).
		Order("n.created_at DESC", "n.id DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to query recent notifications: %w", err)
	}

	return items, nil
}

// CountForUser возвращает количество уведомлений пользователя
func (r *NotificationRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*model.Notification)(nil)).
		Where("n.user_id = ?", userID).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return count, nil
}

// CountUnread возвращает количество непрочитанных уведомлений пользователя
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*model.Notification)(nil)).
		Where("n.user_id = ?", userID).
		Where("n.read_at IS NULL").
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead отмечает уведомление прочитанным. Уже прочитанное не меняется.
func (r *NotificationRepository) MarkRead(ctx context.Context, n *model.Notification, at time.Time) error {
	if n.IsRead() {
		return nil
	}

	readAt := at.UTC()
	n.ReadAt = &readAt

	_, err := r.db.NewUpdate().
		Model(n).
		Column("read_at", "updated_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	return nil
}

// MarkAllRead отмечает прочитанными все уведомления пользователя
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*model.Notification)(nil)).
		Set("read_at = ?", at.UTC()).
		Set("updated_at = ?", at.UTC()).
		Where("user_id = ?", userID).
		Where("read_at IS NULL").
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return n, nil
}

// DeleteForUser удаляет уведомление пользователя и возвращает число удаленных строк
func (r *NotificationRepository) DeleteForUser(ctx context.Context, userID, id int64) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*model.Notification)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to delete notification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return n, nil
}
