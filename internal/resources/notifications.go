package resources

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// NotificationResource имя ресурса уведомлений
const NotificationResource = "notification"

// NotificationEngine движок ресурса уведомлений
type NotificationEngine = crud.Engine[model.Notification, *model.Notification]

// NotificationDefinition описывает ресурс уведомлений для администратора
func NotificationDefinition(perPage, maxPerPage int) crud.Definition {
	return crud.Definition{
		Name:             NotificationResource,
		IndexPage:        "Notification/Manage",
		FormPage:         "Notification/Form",
		PerPage:          perPage,
		MaxPerPage:       maxPerPage,
		Validate:         true,
		Relations:        []string{"User"},
		SearchFields:     []string{"type", "user_id"},
		QuickSearchField: "title",
		Schema: crud.Schema{
			"user_id": crud.Int,
			"title":   crud.String,
			"content": crud.String,
			"type":    crud.String,
			"read_at": crud.Time,
		},
	}
}

// NotificationRules правила валидации уведомлений
func NotificationRules() crud.FieldRules {
	return crud.FieldRules{
		"user_id": {crud.Required(crud.SceneCreate), crud.Exists("users", "id")},
		"title":   {crud.Required(), crud.MaxLen(255)},
		"content": {crud.Required()},
		"type":    {crud.OneOf(model.NotificationTypes...)},
	}
}

// NewNotificationEngine создает движок ресурса уведомлений
func NewNotificationEngine(db *bun.DB, registry *crud.Registry, perPage, maxPerPage int, logger *zap.Logger) (*NotificationEngine, error) {
	return crud.NewEngine[model.Notification, *model.Notification](db, NotificationDefinition(perPage, maxPerPage), registry, logger)
}

// NewRegistry регистрирует правила всех ресурсов
func NewRegistry() *crud.Registry {
	registry := crud.NewRegistry()
	registry.Register(UserResource, UserRules())
	registry.Register(NotificationResource, NotificationRules())
	return registry
}
