// Package service содержит бизнес-логику приложения.
package service

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/model"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NotificationPerPage размер страницы уведомлений пользователя
const NotificationPerPage = 15

// NotificationList страница уведомлений пользователя
type NotificationList struct {
	List        *crud.Page[model.Notification] `json:"list"`
	UnreadCount int                            `json:"unreadCount"`
}

// Message содержимое отправляемого уведомления
type Message struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// NotificationService содержит бизнес-логику для работы с уведомлениями
type NotificationService struct {
	notifications model.NotificationRepository
	users         model.UserRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewNotificationService создает новый сервис уведомлений
func NewNotificationService(notifications model.NotificationRepository, users model.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		logger:        logger,
		now:           time.Now,
	}
}

// List возвращает страницу уведомлений пользователя и число непрочитанных
func (s *NotificationService) List(ctx context.Context, userID int64, page int) (*NotificationList, error) {
	if page < 1 {
		page = 1
	}

	items, total, err := s.notifications.ListForUser(ctx, userID, page, NotificationPerPage)
	if err != nil {
		return nil, err
	}

	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationList{
		List:        crud.NewPage(items, total, page, NotificationPerPage),
		UnreadCount: unread,
	}, nil
}

// UnreadCount возвращает число непрочитанных уведомлений пользователя
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// Read отмечает уведомление пользователя прочитанным.
// Чужое или отсутствующее уведомление дает crud.ErrNotFound.
func (s *NotificationService) Read(ctx context.Context, userID, id int64) (*model.Notification, error) {
	n, err := s.notifications.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: notification #%d", crud.ErrNotFound, id)
	}

	if err := s.notifications.MarkRead(ctx, n, s.now()); err != nil {
		return nil, err
	}

	return n, nil
}

// ReadAll отмечает прочитанными все уведомления пользователя
func (s *NotificationService) ReadAll(ctx context.Context, userID int64) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Notifications marked as read", zap.Int64("user_id", userID), zap.Int64("count", n))
	return n, nil
}

// Delete удаляет уведомление пользователя. Удаление отсутствующего не является ошибкой.
func (s *NotificationService) Delete(ctx context.Context, userID, id int64) (int64, error) {
	return s.notifications.DeleteForUser(ctx, userID, id)
}

// Send отправляет уведомление одному пользователю
func (s *NotificationService) Send(ctx context.Context, userID int64, msg Message) (*model.Notification, error) {
	msg, err := msg.normalize()
	if err != nil {
		return nil, err
	}

	n := &model.Notification{UserID: userID, Title: msg.Title, Content: msg.Content, Type: msg.Type}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	s.logger.Info("Notification sent", zap.Int64("user_id", userID), zap.String("type", msg.Type))
	return n, nil
}

// SendToMany отправляет уведомление нескольким пользователям
func (s *NotificationService) SendToMany(ctx context.Context, userIDs []int64, msg Message) (int, error) {
	msg, err := msg.normalize()
	if err != nil {
		return 0, err
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	items := make([]*model.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		items = append(items, &model.Notification{UserID: id, Title: msg.Title, Content: msg.Content, Type: msg.Type})
	}

	if err := s.notifications.CreateMany(ctx, items); err != nil {
		return 0, err
	}

	s.logger.Info("Notifications sent", zap.Int("recipients", len(items)), zap.String("type", msg.Type))
	return len(items), nil
}

// SendToAll отправляет уведомление всем пользователям
func (s *NotificationService) SendToAll(ctx context.Context, msg Message) (int, error) {
	ids, err := s.users.IDs(ctx)
	if err != nil {
		return 0, err
	}
	return s.SendToMany(ctx, ids, msg)
}

// normalize проверяет сообщение и подставляет тип по умолчанию
func (m Message) normalize() (Message, error) {
	m.Title = strings.TrimSpace(m.Title)
	m.Content = strings.TrimSpace(m.Content)
	if m.Type == "" {
		m.Type = model.NotificationInfo
	}

	var errs model.ValidationErrors
	if err := model.ValidateRequired("content", m.Content); err != nil {
		errs.Add("content", "is required")
	}
	if err := model.ValidateRequired("title", m.Title); err != nil {
		errs.Add("title", "is required")
	}
	if err := model.ValidateEnum("type", m.Type, model.NotificationTypes); err != nil {
		errs.Add("type", "must be one of: "+strings.Join(model.NotificationTypes, ", "))
	}

	if errs.HasErrors() {
		return m, errs
	}
	return m, nil
}
