package crud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/bun"

	"adminpanel/internal/model"
)

// Scene сценарий валидации
type Scene string

const (
	SceneCreate Scene = "create"
	SceneUpdate Scene = "update"
)

// Input данные для проверки правил
type Input struct {
	Scene   Scene
	ID      int64
	Payload Payload
	DB      bun.IDB
}

// Rules набор правил валидации ресурса. Validate возвращает
// model.ValidationErrors или nil.
type Rules interface {
	Validate(ctx context.Context, in Input) error
}

// RulesFunc адаптер функции к Rules
type RulesFunc func(ctx context.Context, in Input) error

// Validate вызывает функцию
func (f RulesFunc) Validate(ctx context.Context, in Input) error {
	return f(ctx, in)
}

// Registry реестр правил валидации по имени ресурса.
// Отсутствие записи означает, что валидация не нужна.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rules
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rules)}
}

// Register регистрирует правила ресурса
func (r *Registry) Register(resource string, rules Rules) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[resource] = rules
}

// Lookup возвращает правила ресурса
func (r *Registry) Lookup(resource string) (Rules, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, ok := r.rules[resource]
	return rules, ok
}

// Check проверка одного поля. Возвращает сообщение об ошибке или пустую строку.
type Check func(ctx context.Context, in Input, field string) string

// FieldRules проверки по полям. Для каждого поля сообщается первая ошибка.
type FieldRules map[string][]Check

// Validate проверяет все поля в алфавитном порядке
func (fr FieldRules) Validate(ctx context.Context, in Input) error {
	fields := make([]string, 0, len(fr))
	for field := range fr {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs model.ValidationErrors
	for _, field := range fields {
		for _, check := range fr[field] {
			if msg := check(ctx, in, field); msg != "" {
				errs.Add(field, msg)
				break
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Required требует непустое значение. Без сценариев действует всегда.
func Required(scenes ...Scene) Check {
	return func(_ context.Context, in Input, field string) string {
		if !inScene(in.Scene, scenes) {
			return ""
		}
		value, ok := in.Payload[field]
		if !ok || value == nil {
			return "is required"
		}
		if s, isString := value.(string); isString {
			return messageOf(model.ValidateRequired(field, s))
		}
		return ""
	}
}

// MinLen требует минимальную длину строки
func MinLen(n int) Check {
	return func(_ context.Context, in Input, field string) string {
		s, ok := stringField(in.Payload, field)
		if !ok {
			return ""
		}
		return messageOf(model.ValidateLength(field, s, n, 0))
	}
}

// MaxLen ограничивает длину строки
func MaxLen(n int) Check {
	return func(_ context.Context, in Input, field string) string {
		s, ok := stringField(in.Payload, field)
		if !ok {
			return ""
		}
		return messageOf(model.ValidateLength(field, s, 0, n))
	}
}

// Email проверяет формат адреса
func Email() Check {
	return func(_ context.Context, in Input, field string) string {
		s, ok := stringField(in.Payload, field)
		if !ok {
			return ""
		}
		return messageOf(model.ValidateEmail(field, s))
	}
}

// OneOf ограничивает значение списком
func OneOf(values ...string) Check {
	return func(_ context.Context, in Input, field string) string {
		s, ok := stringField(in.Payload, field)
		if !ok {
			return ""
		}
		return messageOf(model.ValidateEnum(field, s, values))
	}
}

// Unique требует уникальности значения в колонке таблицы.
// При обновлении текущая запись не учитывается.
func Unique(table, column string) Check {
	return func(ctx context.Context, in Input, field string) string {
		value, ok := in.Payload[field]
		if !ok || value == nil || value == "" {
			return ""
		}
		if in.DB == nil {
			return "could not be verified"
		}

		q := in.DB.NewSelect().
			TableExpr("?", bun.Ident(table)).
			Where("? = ?", bun.Ident(column), value)
		if in.Scene == SceneUpdate && in.ID != 0 {
			q = q.Where("? != ?", bun.Ident(DefaultPrimaryKey), in.ID)
		}

		count, err := q.Count(ctx)
		if err != nil {
			return fmt.Sprintf("could not be verified: %v", err)
		}
		if count > 0 {
			return "already taken"
		}
		return ""
	}
}

// Exists требует, чтобы значение ссылалось на существующую строку таблицы
func Exists(table, column string) Check {
	return func(ctx context.Context, in Input, field string) string {
		value, ok := in.Payload[field]
		if !ok || value == nil || value == "" {
			return ""
		}
		if in.DB == nil {
			return "could not be verified"
		}

		exists, err := in.DB.NewSelect().
			TableExpr("?", bun.Ident(table)).
			Where("? = ?", bun.Ident(column), value).
			Exists(ctx)
		if err != nil {
			return fmt.Sprintf("could not be verified: %v", err)
		}
		if !exists {
			return "does not exist"
		}
		return ""
	}
}

func inScene(scene Scene, scenes []Scene) bool {
	if len(scenes) == 0 {
		return true
	}
	for _, s := range scenes {
		if s == scene {
			return true
		}
	}
	return false
}

// stringField возвращает непустое строковое значение поля
func stringField(p Payload, field string) (string, bool) {
	s, ok := p[field].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	var ve model.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
