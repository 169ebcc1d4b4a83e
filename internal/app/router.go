// Package app содержит маршрутизацию HTTP запросов.
package app

import (
	"adminpanel/internal/admin"
	"adminpanel/internal/api"
	"adminpanel/internal/health"
	"adminpanel/internal/middleware"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Название приложения в заголовках страниц
const (
	AppName    = "Admin Panel"
	AppVersion = "1.0.0"
)

// NewRouter собирает все HTTP маршруты приложения
func NewRouter(c *Components, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()
	m := c.Middleware

	health.NewServer(c.DB, logger).Register(router)
	api.Mount(router, c.Users, m.Auth(), logger, mux.MiddlewareFunc(m.RateLimit()))

	router.Handle("/", http.RedirectHandler("/dashboard", http.StatusFound)).Methods(http.MethodGet)

	panel := router.NewRoute().Subrouter()
	panel.Use(mux.MiddlewareFunc(m.Auth()), mux.MiddlewareFunc(m.Debounce()))

	renderer := admin.NewRenderer(AppName, AppVersion, logger)
	admin.Mount(panel, "/user", c.Users, renderer, logger)
	admin.Mount(panel, "/notification", c.Notifications, renderer, logger)
	admin.MountAccount(panel, c.Dashboard, c.Inbox, renderer, logger)

	return middleware.Chain(router, append(m.Common(), middleware.MethodOverride)...)
}
