// Package middleware содержит HTTP middleware компоненты.
package middleware

import (
	"adminpanel/internal/config"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthRealm realm для HTTP Basic
const AuthRealm = "adminpanel"

// Middleware представляет набор middleware приложения
type Middleware struct {
	rateLimiter RateLimiterInterface
	debouncer   DebouncerInterface
	users       UserFinder
	proxies     []*net.IPNet
	logger      *zap.Logger
	config      *config.Config
}

// New создает новый middleware
func New(cfg *config.Config, users UserFinder, logger *zap.Logger) *Middleware {
	proxies, err := ParseProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Warn("Ignoring trusted proxies", zap.Error(err))
		proxies = nil
	}

	return &Middleware{
		rateLimiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, logger),
		debouncer:   NewDebouncer(cfg.DebounceWindow, logger),
		users:       users,
		proxies:     proxies,
		logger:      logger,
		config:      cfg,
	}
}

// Common возвращает middleware, общие для всех маршрутов
func (m *Middleware) Common() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RealIP(m.proxies),
		Logging(m.logger),
		Recovery(m.logger),
	}
}

// Auth возвращает middleware аутентификации
func (m *Middleware) Auth() func(http.Handler) http.Handler {
	return BasicAuth(m.users, AuthRealm, m.logger)
}

// RateLimit возвращает ограничитель частоты запросов.
// При выключенном лимите запросы проходят без проверки.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if !m.config.RateLimitEnabled {
		return passthrough
	}
	return RateLimit(m.rateLimiter, m.config.RateLimitWindow)
}

// Debounce возвращает защиту от двойной отправки форм
func (m *Middleware) Debounce() func(http.Handler) http.Handler {
	if m.config.DebounceWindow <= 0 {
		return passthrough
	}
	return Debounce(m.debouncer)
}

// Cleanup очищает устаревшие записи в middleware
func (m *Middleware) Cleanup() {
	m.rateLimiter.Cleanup()
	m.debouncer.Cleanup()
}

// StartCleanup периодически очищает устаревшие записи до отмены контекста
func (m *Middleware) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// Chain оборачивает обработчик middleware в порядке перечисления
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// MethodOverride подменяет POST на метод из поля _method или заголовка
// X-HTTP-Method-Override. Должен оборачивать роутер снаружи.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.Header.Get("X-HTTP-Method-Override")
			if method == "" && isForm(r) {
				method = r.PostFormValue("_method")
			}
			switch method = strings.ToUpper(strings.TrimSpace(method)); method {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

func passthrough(next http.Handler) http.Handler {
	return next
}
