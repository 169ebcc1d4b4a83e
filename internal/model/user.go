// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: User, UserRepository
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// Статусы пользователя
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

var userFillable = []string{"name", "email", "password", "status", "sort"}

// User представляет учетную запись администратора
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	Name            string     `bun:"name,notnull" json:"name"`
	Email           string     `bun:"email,unique,notnull" json:"email"`
	Password        string     `bun:"password,notnull" json:"-"`
	Status          int64      `bun:"status,notnull" json:"status"`
	Sort            int64      `bun:"sort,notnull,default:0" json:"sort"`
	EmailVerifiedAt *time.Time `bun:"email_verified_at" json:"email_verified_at"`
	Timestamps
}

// PrimaryKey возвращает первичный ключ
func (u *User) PrimaryKey() int64 {
	return u.ID
}

// Fillable возвращает поля, разрешенные для записи из запроса
func (u *User) Fillable() []string {
	return userFillable
}

// ApplyDefaults выставляет значения по умолчанию для новой записи
func (u *User) ApplyDefaults() {
	u.Status = UserStatusActive
}

// Get возвращает значение поля по имени колонки
func (u *User) Get(field string) (any, bool) {
	switch field {
	case "id":
		return u.ID, true
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "status":
		return u.Status, true
	case "sort":
		return u.Sort, true
	case "email_verified_at":
		return u.EmailVerifiedAt, true
	case "created_at":
		return u.CreatedAt, true
	case "updated_at":
		return u.UpdatedAt, true
	}
	return nil, false
}

// Set записывает значение поля. Пароль хэшируется, пустой пароль игнорируется.
func (u *User) Set(field string, value any) error {
	if !contains(userFillable, field) {
		return fmt.Errorf("field %s is not fillable", field)
	}

	switch field {
	case "name", "email":
		s, err := stringValue(field, value)
		if err != nil {
			return err
		}
		if field == "name" {
			u.Name = s
		} else {
			u.Email = s
		}
	case "password":
		s, err := stringValue(field, value)
		if err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		return u.SetPassword(s)
	case "status", "sort":
		n, err := intValue(field, value)
		if err != nil {
			return err
		}
		if field == "status" {
			u.Status = n
		} else {
			u.Sort = n
		}
	}

	return nil
}

// SetPassword сохраняет bcrypt-хэш пароля
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword сверяет пароль с сохраненным хэшем
func (u *User) CheckPassword(plain string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// IsActive проверяет, активна ли учетная запись
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Repository[User]
	GetByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	IDs(ctx context.Context) ([]int64, error)
}
