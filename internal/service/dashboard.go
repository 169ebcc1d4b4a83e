package service

import (
	"adminpanel/internal/model"
	"context"
	"time"

	"go.uber.org/zap"
)

// RecentNotificationsLimit сколько последних уведомлений показывать на главной
const RecentNotificationsLimit = 5

// Stats счетчики главной страницы
type Stats struct {
	UserCount               int `json:"userCount"`
	TodayUserCount          int `json:"todayUserCount"`
	NotificationCount       int `json:"notificationCount"`
	UnreadNotificationCount int `json:"unreadNotificationCount"`
}

// Dashboard данные главной страницы
type Dashboard struct {
	Stats               Stats                `json:"stats"`
	RecentNotifications []model.Notification `json:"recentNotifications"`
}

// DashboardService собирает статистику для главной страницы
type DashboardService struct {
	users         model.UserRepository
	notifications model.NotificationRepository
	location      *time.Location
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService создает новый сервис главной страницы
func NewDashboardService(users model.UserRepository, notifications model.NotificationRepository, location *time.Location, logger *zap.Logger) *DashboardService {
	if location == nil {
		location = time.UTC
	}
	return &DashboardService{
		users:         users,
		notifications: notifications,
		location:      location,
		logger:        logger,
		now:           time.Now,
	}
}

// Stats возвращает статистику для пользователя
func (s *DashboardService) Stats(ctx context.Context, userID int64) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)

	if d.Stats.UserCount, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if d.Stats.TodayUserCount, err = s.users.CountCreatedSince(ctx, s.startOfDay()); err != nil {
		return nil, err
	}
	if d.Stats.NotificationCount, err = s.notifications.CountForUser(ctx, userID); err != nil {
		return nil, err
	}
	if d.Stats.UnreadNotificationCount, err = s.notifications.CountUnread(ctx, userID); err != nil {
		return nil, err
	}
	if d.RecentNotifications, err = s.notifications.Recent(ctx, userID, RecentNotificationsLimit); err != nil {
		return nil, err
	}
	if d.RecentNotifications == nil {
		d.RecentNotifications = []model.Notification{}
	}

	return &d, nil
}

// startOfDay возвращает начало текущих суток в часовом поясе приложения
func (s *DashboardService) startOfDay() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}
