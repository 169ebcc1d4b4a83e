package admin

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/middleware"
	"adminpanel/internal/model"
	"adminpanel/internal/respond"
	"adminpanel/internal/service"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Сообщения страницы уведомлений
const (
	MsgMarkedRead    = "marked as read"
	MsgAllMarkedRead = "all marked as read"
	MsgDeleted       = "deleted successfully"
	MsgSent          = "notification sent"
)

const notificationsPath = "/account/notification"

// Account обработчики главной и уведомлений текущего пользователя
type Account struct {
	dashboard     *service.DashboardService
	notifications *service.NotificationService
	renderer      *Renderer
	logger        *zap.Logger
}

// MountAccount регистрирует главную и маршруты уведомлений
func MountAccount(router *mux.Router, dashboard *service.DashboardService, notifications *service.NotificationService, renderer *Renderer, logger *zap.Logger) *Account {
	h := &Account{
		dashboard:     dashboard,
		notifications: notifications,
		renderer:      renderer,
		logger:        logger,
	}

	router.HandleFunc("/dashboard", h.home).Methods(http.MethodGet)
	router.HandleFunc(notificationsPath, h.notificationIndex).Methods(http.MethodGet)
	router.HandleFunc(notificationsPath+"/read-all", h.readAll).Methods(http.MethodPost)
	router.HandleFunc(notificationsPath+"/send", h.send).Methods(http.MethodPost)
	router.HandleFunc(notificationsPath+"/{id:[0-9]+}/read", h.read).Methods(http.MethodPost)
	router.HandleFunc(notificationsPath+"/{id:[0-9]+}", h.destroy).Methods(http.MethodDelete)

	return h
}

func (h *Account) home(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	dashboard, err := h.dashboard.Stats(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.renderer.Render(w, r, "Dashboard", map[string]any{
		"stats":               dashboard.Stats,
		"recentNotifications": dashboard.RecentNotifications,
	})
}

func (h *Account) notificationIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	list, err := h.notifications.List(r.Context(), userID, page)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.renderer.Render(w, r, "Notification/Index", map[string]any{
		"list":        list.List,
		"unreadCount": list.UnreadCount,
	})
}

func (h *Account) read(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.notifications.Read(r.Context(), userID, id); err != nil {
		failure(w, r, err, notificationsPath, h.logger)
		return
	}
	complete(w, r, crud.OK(MsgMarkedRead, nil), notificationsPath, h.logger)
}

func (h *Account) readAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	updated, err := h.notifications.ReadAll(r.Context(), userID)
	if err != nil {
		failure(w, r, err, notificationsPath, h.logger)
		return
	}
	complete(w, r, crud.OK(MsgAllMarkedRead, map[string]int64{"updated": updated}), notificationsPath, h.logger)
}

func (h *Account) destroy(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.notifications.Delete(r.Context(), userID, id); err != nil {
		failure(w, r, err, notificationsPath, h.logger)
		return
	}
	complete(w, r, crud.OK(MsgDeleted, nil), notificationsPath, h.logger)
}

// send рассылает уведомление выбранным пользователям (user_ids) или всем (all)
func (h *Account) send(w http.ResponseWriter, r *http.Request) {
	input, err := parseInput(r)
	if err != nil {
		badBody(w, err)
		return
	}

	msg := service.Message{
		Title:   stringValue(input["title"]),
		Content: stringValue(input["content"]),
		Type:    stringValue(input["type"]),
	}

	var sent int
	if all, _ := strconv.ParseBool(stringValue(input["all"])); all {
		sent, err = h.notifications.SendToAll(r.Context(), msg)
	} else {
		var ids []int64
		ids, err = recipients(input["user_ids"])
		if err == nil {
			sent, err = h.notifications.SendToMany(r.Context(), ids, msg)
		}
	}
	if err != nil {
		failure(w, r, err, "/notification", h.logger)
		return
	}

	complete(w, r, crud.OK(MsgSent, map[string]int{"sent": sent}), "/notification", h.logger)
}

// recipients разбирает список id получателей
func recipients(v any) ([]int64, error) {
	var errs model.ValidationErrors
	values := listValue(v)
	ids := make([]int64, 0, len(values))
	for _, s := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || id <= 0 {
			errs.Add("user_ids", "must contain numeric ids")
			return nil, errs
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		errs.Add("user_ids", "is required")
		return nil, errs
	}
	return ids, nil
}

// userID возвращает id аутентифицированного пользователя
func (h *Account) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		respond.Fail(w, http.StatusUnauthorized, middleware.MsgUnauthorized)
		return 0, false
	}
	return user.ID, true
}
