package service

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/model"
	"adminpanel/internal/storage"
	"adminpanel/internal/storage/storagetest"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createUsers(t *testing.T, db *storage.Database, names ...string) []*model.User {
	t.Helper()
	var users []*model.User
	for _, name := range names {
		u := &model.User{Name: name, Email: name + "@example.com", Status: model.UserStatusActive}
		require.NoError(t, db.GetUserRepository().Create(context.Background(), u))
		users = append(users, u)
	}
	return users
}

func newNotificationService(db *storage.Database) *NotificationService {
	return NewNotificationService(db.GetNotificationRepository(), db.GetUserRepository(), zap.NewNop())
}

func TestNotificationService_SendValidation(t *testing.T) {
	db := storagetest.New(t)
	svc := newNotificationService(db)
	users := createUsers(t, db, "alice")

	tests := []struct {
		name   string
		msg    Message
		fields []string
	}{
		{name: "empty", msg: Message{}, fields: []string{"content", "title"}},
		{name: "blank title", msg: Message{Title: "  ", Content: "body"}, fields: []string{"title"}},
		{name: "bad type", msg: Message{Title: "t", Content: "c", Type: "urgent"}, fields: []string{"type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), users[0].ID, tt.msg)

			var verrs model.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var fields []string
			for _, e := range verrs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestNotificationService_SendAndRead(t *testing.T) {
	db := storagetest.New(t)
	svc := newNotificationService(db)
	users := createUsers(t, db, "alice", "bob")
	ctx := context.Background()

	fixed := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	n, err := svc.Send(ctx, users[0].ID, Message{Title: "Hello", Content: "World"})
	require.NoError(t, err)
	assert.Equal(t, model.NotificationInfo, n.Type)

	_, err = svc.Read(ctx, users[1].ID, n.ID)
	assert.ErrorIs(t, err, crud.ErrNotFound)

	read, err := svc.Read(ctx, users[0].ID, n.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	assert.True(t, read.ReadAt.Equal(fixed))

	svc.now = func() time.Time { return fixed.Add(time.Hour) }
	again, err := svc.Read(ctx, users[0].ID, n.ID)
	require.NoError(t, err)
	assert.True(t, again.ReadAt.Equal(fixed))

	unread, err := svc.UnreadCount(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestNotificationService_SendToAllAndReadAll(t *testing.T) {
	db := storagetest.New(t)
	svc := newNotificationService(db)
	users := createUsers(t, db, "alice", "bob", "carol")
	ctx := context.Background()

	sent, err := svc.SendToAll(ctx, Message{Title: "Maintenance", Content: "Tonight", Type: model.NotificationWarning})
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	sent, err = svc.SendToMany(ctx, []int64{users[0].ID}, Message{Title: "Personal", Content: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	list, err := svc.List(ctx, users[0].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.List.Total)
	assert.Equal(t, 2, list.UnreadCount)
	assert.Equal(t, 1, list.List.Page)
	assert.Equal(t, "Personal", list.List.Items[0].Title)

	marked, err := svc.ReadAll(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	marked, err = svc.ReadAll(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)

	unread, err := svc.UnreadCount(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestNotificationService_DeleteScopedToOwner(t *testing.T) {
	db := storagetest.New(t)
	svc := newNotificationService(db)
	users := createUsers(t, db, "alice", "bob")
	ctx := context.Background()

	n, err := svc.Send(ctx, users[0].ID, Message{Title: "t", Content: "c"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, users[1].ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = svc.Delete(ctx, users[0].ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDashboardService_Stats(t *testing.T) {
	db := storagetest.New(t)
	users := createUsers(t, db, "alice", "bob")
	ctx := context.Background()

	notifications := newNotificationService(db)
	for i := 0; i < 7; i++ {
		_, err := notifications.Send(ctx, users[0].ID, Message{Title: "t", Content: "c"})
		require.NoError(t, err)
	}
	_, err := notifications.ReadAll(ctx, users[1].ID)
	require.NoError(t, err)

	svc := NewDashboardService(db.GetUserRepository(), db.GetNotificationRepository(), time.UTC, zap.NewNop())

	dashboard, err := svc.Stats(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, Stats{UserCount: 2, TodayUserCount: 2, NotificationCount: 7, UnreadNotificationCount: 7}, dashboard.Stats)
	assert.Len(t, dashboard.RecentNotifications, RecentNotificationsLimit)

	empty, err := svc.Stats(ctx, users[1].ID)
	require.NoError(t, err)
	assert.NotNil(t, empty.RecentNotifications)
	assert.Empty(t, empty.RecentNotifications)
}

func TestDashboardService_StartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	svc := NewDashboardService(nil, nil, loc, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 17, 20, 30, 0, 0, time.UTC) }

	start := svc.startOfDay()

	assert.Equal(t, time.Date(2024, 5, 18, 0, 0, 0, 0, loc), start)
}
