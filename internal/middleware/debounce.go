// Package middleware содержит middleware для debounce.
package middleware

import (
	"adminpanel/internal/respond"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MsgDuplicateSubmit сообщение при повторной отправке формы
const MsgDuplicateSubmit = "duplicate request, please wait"

// DebouncerInterface определяет интерфейс для debouncer
type DebouncerInterface interface {
	// CanProcessRequest проверяет, можно ли обработать запрос
	CanProcessRequest(key string) bool
	// Cleanup очищает устаревшие записи
	Cleanup()
}

// Debouncer предотвращает двойные отправки одной и той же формы
type Debouncer struct {
	requests map[string]time.Time
	mu       sync.Mutex
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

var _ DebouncerInterface = (*Debouncer)(nil)

// NewDebouncer создает новый debouncer
func NewDebouncer(timeout time.Duration, logger *zap.Logger) *Debouncer {
	return &Debouncer{
		requests: make(map[string]time.Time),
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// CanProcessRequest проверяет, можно ли обработать запрос
func (d *Debouncer) CanProcessRequest(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if lastRequest, exists := d.requests[key]; exists && now.Sub(lastRequest) < d.timeout {
		d.logger.Debug("Request debounced",
			zap.String("key", key),
			zap.Duration("since_last", now.Sub(lastRequest)))
		return false
	}

	d.requests[key] = now
	return true
}

// Cleanup очищает устаревшие записи
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, lastRequest := range d.requests {
		if now.Sub(lastRequest) >= d.timeout {
			delete(d.requests, key)
		}
	}
}

// Debounce отклоняет повторный изменяющий запрос того же клиента
// на тот же адрес в пределах таймаута. GET и HEAD не ограничиваются.
func Debounce(debouncer DebouncerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Method + " " + r.URL.Path + " " + ClientIP(r)
			if user := CurrentUser(r.Context()); user != nil {
				key = r.Method + " " + r.URL.Path + " user:" + strconv.FormatInt(user.ID, 10)
			}
			if !debouncer.CanProcessRequest(key) {
				respond.Fail(w, http.StatusTooManyRequests, MsgDuplicateSubmit)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
