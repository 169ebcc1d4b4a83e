// Package middleware содержит middleware для логирования запросов.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userKey      contextKey = "user"
)

// RequestContext содержит контекст для обработки запроса
type RequestContext struct {
	StartTime time.Time
	RequestID string
	Method    string
	Path      string
	ClientIP  string
}

// statusRecorder запоминает статус ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging логирует запросы и присваивает им идентификатор.
// Входящий X-Request-ID сохраняется, иначе генерируется uuid.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestCtx := &RequestContext{
				StartTime: time.Now(),
				RequestID: r.Header.Get(RequestIDHeader),
				Method:    r.Method,
				Path:      r.URL.Path,
				ClientIP:  ClientIP(r),
			}
			if requestCtx.RequestID == "" {
				requestCtx.RequestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestCtx.RequestID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), requestIDKey, requestCtx.RequestID)

			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("request_id", requestCtx.RequestID),
				zap.String("method", requestCtx.Method),
				zap.String("path", requestCtx.Path),
				zap.String("client_ip", requestCtx.ClientIP),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(requestCtx.StartTime)),
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Error("Request completed with error", fields...)
			} else {
				logger.Info("Request completed", fields...)
			}
		})
	}
}

// RequestID возвращает идентификатор текущего запроса
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
