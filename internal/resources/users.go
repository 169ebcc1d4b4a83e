// Package resources содержит определения ресурсов админки.
package resources

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserResource имя ресурса пользователей
const UserResource = "user"

// SuperuserProtectedMessage сообщение при попытке удалить суперпользователя
const SuperuserProtectedMessage = "superuser cannot be deleted"

// UserEngine движок ресурса пользователей
type UserEngine = crud.Engine[model.User, *model.User]

// UserDefinition описывает ресурс пользователей
func UserDefinition(superuserID int64, perPage, maxPerPage int) crud.Definition {
	return crud.Definition{
		Name:             UserResource,
		IndexPage:        "User/Index",
		FormPage:         "User/Form",
		ListFields:       []string{"id", "name", "email", "status", "sort", "email_verified_at", "created_at", "updated_at"},
		PerPage:          perPage,
		MaxPerPage:       maxPerPage,
		Validate:         true,
		SearchFields:     []string{"status"},
		QuickSearchField: "name",
		HiddenFields:     []string{"password"},
		Schema: crud.Schema{
			"name":     crud.String,
			"email":    crud.String,
			"password": crud.String,
			"status":   crud.Int,
			"sort":     crud.Int,
		},
		Protected: func(id int64) bool {
			return id == superuserID
		},
		ProtectedMessage: SuperuserProtectedMessage,
		ProtectedFields:  []string{"status"},
		Exporter: crud.CSVExporter{
			Filename: "users.csv",
			Columns:  []string{"id", "name", "email", "status", "created_at"},
		},
	}
}

// UserRules правила валидации пользователей
func UserRules() crud.FieldRules {
	return crud.FieldRules{
		"name":     {crud.Required(), crud.MaxLen(255)},
		"email":    {crud.Required(), crud.Email(), crud.Unique("users", "email")},
		"password": {crud.Required(crud.SceneCreate), crud.MinLen(6)},
	}
}

// NewUserEngine создает движок ресурса пользователей
func NewUserEngine(db *bun.DB, registry *crud.Registry, superuserID int64, perPage, maxPerPage int, logger *zap.Logger) (*UserEngine, error) {
	return crud.NewEngine[model.User, *model.User](db, UserDefinition(superuserID, perPage, maxPerPage), registry, logger)
}
