// Package api содержит JSON API поверх движка ресурсов.
package api

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/middleware"
	"adminpanel/internal/model"
	"adminpanel/internal/respond"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Version версия API
const Version = "v1"

// Сообщения API
const (
	MsgWelcome  = "Welcome to API"
	MsgProfile  = "user profile loaded"
	MsgUserList = "user list loaded"
)

// Welcome ответ публичного корня API
type Welcome struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Handler обработчики API
type Handler struct {
	users  *crud.Engine[model.User, *model.User]
	logger *zap.Logger
}

// Mount регистрирует маршруты API на router с префиксом /api.
// auth оборачивает маршруты, требующие входа, extra применяются ко всем.
func Mount(router *mux.Router, users *crud.Engine[model.User, *model.User], auth func(http.Handler) http.Handler, logger *zap.Logger, extra ...mux.MiddlewareFunc) *Handler {
	h := &Handler{users: users, logger: logger}

	api := router.PathPrefix("/api").Subrouter()
	for _, mw := range extra {
		api.Use(mw)
	}
	api.HandleFunc("/", h.welcome).Methods(http.MethodGet)

	private := api.NewRoute().Subrouter()
	private.Use(mux.MiddlewareFunc(auth))
	private.HandleFunc("/user", h.me).Methods(http.MethodGet)
	private.HandleFunc("/users", h.list).Methods(http.MethodGet)

	return h
}

func (h *Handler) welcome(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, Welcome{Message: MsgWelcome, Version: Version})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		respond.Fail(w, http.StatusUnauthorized, middleware.MsgUnauthorized)
		return
	}
	respond.Success(w, MsgProfile, user)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.List(r.Context(), crud.ParseListParams(r.URL.Query()))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.Success(w, MsgUserList, page)
}
