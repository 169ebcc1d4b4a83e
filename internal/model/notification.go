// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Notification, NotificationRepository
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Типы уведомлений
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// NotificationTypes перечисляет допустимые типы уведомлений
var NotificationTypes = []string{NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError}

var notificationFillable = []string{"user_id", "title", "content", "type", "read_at"}

// Notification представляет уведомление пользователя
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID      int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID  int64      `bun:"user_id,notnull" json:"user_id"`
	Title   string     `bun:"title,notnull" json:"title"`
	Content string     `bun:"content,notnull" json:"content"`
	Type    string     `bun:"type,notnull,default:'info'" json:"type"`
	ReadAt  *time.Time `bun:"read_at" json:"read_at"`
	Timestamps

	User *User `bun:"rel:belongs-to,join:user_id=id,on_delete:CASCADE" json:"user,omitempty"`
}

// PrimaryKey возвращает первичный ключ
func (n *Notification) PrimaryKey() int64 {
	return n.ID
}

// Fillable возвращает поля, разрешенные для записи из запроса
func (n *Notification) Fillable() []string {
	return notificationFillable
}

// ApplyDefaults выставляет значения по умолчанию для новой записи
func (n *Notification) ApplyDefaults() {
	n.Type = NotificationInfo
}

// Get возвращает значение поля по имени колонки
func (n *Notification) Get(field string) (any, bool) {
	switch field {
	case "id":
		return n.ID, true
	case "user_id":
		return n.UserID, true
	case "title":
		return n.Title, true
	case "content":
		return n.Content, true
	case "type":
		return n.Type, true
	case "read_at":
		return n.ReadAt, true
	case "created_at":
		return n.CreatedAt, true
	case "updated_at":
		return n.UpdatedAt, true
	}
	return nil, false
}

// Set записывает значение поля
func (n *Notification) Set(field string, value any) error {
	switch field {
	case "user_id":
		id, err := intValue(field, value)
		if err != nil {
			return err
		}
		n.UserID = id
	case "title", "content", "type":
		s, err := stringValue(field, value)
		if err != nil {
			return err
		}
		switch field {
		case "title":
			n.Title = s
		case "content":
			n.Content = s
		default:
			n.Type = s
		}
	case "read_at":
		t, err := timeValue(field, value)
		if err != nil {
			return err
		}
		n.ReadAt = t
	default:
		return fmt.Errorf("field %s is not fillable", field)
	}
	return nil
}

// IsRead проверяет, прочитано ли уведомление
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationRepository определяет интерфейс для работы с уведомлениями
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	CreateMany(ctx context.Context, items []*Notification) error
	GetForUser(ctx context.Context, userID, id int64) (*Notification, error)
	ListForUser(ctx context.Context, userID int64, page, perPage int) ([]Notification, int, error)
	Recent(ctx context.Context, userID int64, limit int) ([]Notification, error)
	CountForUser(ctx context.Context, userID int64) (int, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, n *Notification, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	DeleteForUser(ctx context.Context, userID, id int64) (int64, error)
}
