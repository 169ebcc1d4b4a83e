// Package middleware содержит middleware для rate limiting.
package middleware

import (
	"adminpanel/internal/respond"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MsgTooManyRequests сообщение при превышении лимита
const MsgTooManyRequests = "too many requests"

// RateLimiterInterface определяет интерфейс для ограничителя запросов
type RateLimiterInterface interface {
	// Allow проверяет, разрешен ли запрос клиента
	Allow(key string) bool
	// Cleanup очищает устаревшие записи
	Cleanup()
}

// RateLimiter ограничивает количество запросов в скользящем окне
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// Allow проверяет, разрешен ли запрос
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	validRequests := rl.valid(rl.requests[key], now.Add(-rl.window))

	if len(validRequests) >= rl.limit {
		rl.requests[key] = validRequests
		rl.logger.Warn("Rate limit exceeded",
			zap.String("client", key),
			zap.Int("requests", len(validRequests)),
			zap.Int("limit", rl.limit))
		return false
	}

	rl.requests[key] = append(validRequests, now)
	return true
}

// Cleanup очищает старые записи
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.window)
	for key, requests := range rl.requests {
		validRequests := rl.valid(requests, windowStart)
		if len(validRequests) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = validRequests
		}
	}
}

// valid оставляет запросы, попавшие в окно
func (rl *RateLimiter) valid(requests []time.Time, windowStart time.Time) []time.Time {
	var validRequests []time.Time
	for _, reqTime := range requests {
		if reqTime.After(windowStart) {
			validRequests = append(validRequests, reqTime)
		}
	}
	return validRequests
}

// RateLimit отклоняет запросы сверх лимита со статусом 429.
// Клиент определяется по текущему пользователю, иначе по IP.
func RateLimit(limiter RateLimiterInterface, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				respond.Fail(w, http.StatusTooManyRequests, MsgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey возвращает ключ клиента для лимитов
func clientKey(r *http.Request) string {
	if user := CurrentUser(r.Context()); user != nil {
		return "user:" + strconv.FormatInt(user.ID, 10)
	}
	return "ip:" + ClientIP(r)
}

// ClientIP возвращает IP клиента по адресу соединения.
// X-Forwarded-For учитывается только через RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
