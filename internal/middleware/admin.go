// Package middleware содержит middleware для аутентификации администратора.
package middleware

import (
	"adminpanel/internal/model"
	"adminpanel/internal/respond"
	"context"
	"net/http"

	"go.uber.org/zap"
)

// MsgUnauthorized сообщение при отсутствии или неверных учетных данных
const MsgUnauthorized = "unauthenticated"

// UserFinder ищет пользователя по email
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// BasicAuth проверяет учетные данные HTTP Basic по таблице пользователей.
// Отключенные пользователи не проходят проверку.
func BasicAuth(users UserFinder, realm string, logger *zap.Logger) func(http.Handler) http.Handler {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, challenge)
				return
			}

			user, err := users.GetByEmail(r.Context(), email)
			if err != nil {
				logger.Error("Failed to load user for authentication", zap.Error(err))
				respond.Fail(w, http.StatusInternalServerError, respond.MsgInternalError)
				return
			}
			if user == nil || !user.CheckPassword(password) || !user.IsActive() {
				logger.Warn("Unauthorized access attempt",
					zap.String("request_id", RequestID(r.Context())),
					zap.String("email", email),
					zap.String("path", r.URL.Path))
				unauthorized(w, challenge)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	respond.Fail(w, http.StatusUnauthorized, MsgUnauthorized)
}

// WithUser кладет пользователя в контекст
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser возвращает аутентифицированного пользователя или nil
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}
