// Package crud содержит обобщенный движок ресурсов админки.
//
// Ресурс описывается статической конфигурацией Definition, а модель
// реализует интерфейс Record. Движок Engine строит на их основе операции
// списка, создания, изменения, удаления, сортировки, выборки и экспорта.
package crud

import (
	"fmt"
	"strings"
)

// Значения по умолчанию для Definition
const (
	DefaultPrimaryKey     = "id"
	DefaultOrderField     = "id"
	DefaultOrderDirection = "desc"
	DefaultPerPage        = 15
	DefaultMaxPerPage     = 100
	DefaultSortField      = "sort"
	DefaultStatusField    = "status"
	DefaultLabelField     = "name"
	DefaultValueField     = "id"
)

// Definition описывает ресурс. Создается один раз при старте и не меняется.
type Definition struct {
	// Name идентификатор ресурса, он же ключ в реестре правил валидации
	Name string

	// Компоненты страниц списка и формы
	IndexPage string
	FormPage  string

	PrimaryKey string

	// ListFields проекция колонок для списка, пусто - все колонки
	ListFields []string

	OrderField     string
	OrderDirection string

	PerPage    int
	MaxPerPage int

	// Validate включает правила из реестра
	Validate bool

	// Relations связи для предзагрузки
	Relations []string

	// SearchFields поля точного поиска, QuickSearchField поле поиска по keyword
	SearchFields     []string
	QuickSearchField string

	// ExcludeFields всегда удаляются из входных данных
	ExcludeFields []string

	// HiddenFields можно записывать, но нельзя читать через сортировку и выпадающие списки
	HiddenFields []string

	// Schema описывает допустимые поля входных данных и их типы
	Schema Schema

	// SortField поле для reorder по умолчанию
	SortField string

	// Protected отмечает записи, которые нельзя удалить
	Protected        func(id int64) bool
	ProtectedMessage string

	// ProtectedFields поля, которые нельзя менять у защищенных записей
	ProtectedFields []string

	// Exporter переопределяет экспорт, nil - экспорт не реализован
	Exporter Exporter
}

// withDefaults возвращает копию определения с заполненными значениями по умолчанию
func (d Definition) withDefaults() Definition {
	if d.PrimaryKey == "" {
		d.PrimaryKey = DefaultPrimaryKey
	}
	if d.OrderField == "" {
		d.OrderField = DefaultOrderField
	}
	d.OrderDirection = normalizeDirection(d.OrderDirection, DefaultOrderDirection)
	if d.PerPage <= 0 {
		d.PerPage = DefaultPerPage
	}
	if d.MaxPerPage <= 0 {
		d.MaxPerPage = DefaultMaxPerPage
	}
	if d.MaxPerPage < d.PerPage {
		d.MaxPerPage = d.PerPage
	}
	if d.SortField == "" {
		d.SortField = DefaultSortField
	}
	if d.ProtectedMessage == "" {
		d.ProtectedMessage = "record is protected"
	}

	d.ListFields = append([]string(nil), d.ListFields...)
	d.Relations = append([]string(nil), d.Relations...)
	d.SearchFields = append([]string(nil), d.SearchFields...)
	d.ExcludeFields = append([]string(nil), d.ExcludeFields...)
	d.HiddenFields = append([]string(nil), d.HiddenFields...)
	d.ProtectedFields = append([]string(nil), d.ProtectedFields...)

	schema := make(Schema, len(d.Schema))
	for field, typ := range d.Schema {
		schema[field] = typ
	}
	d.Schema = schema

	return d
}

// validate проверяет определение
func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("resource name is required")
	}
	if len(d.Schema) == 0 {
		return fmt.Errorf("resource %s: schema is required", d.Name)
	}
	return nil
}

// Columns возвращает множество колонок, которые разрешено использовать
// в сортировке и проекции выборки
func (d Definition) Columns() map[string]bool {
	columns := map[string]bool{d.PrimaryKey: true, d.OrderField: true}
	for _, f := range d.ListFields {
		columns[f] = true
	}
	for f := range d.Schema {
		columns[f] = true
	}
	for _, f := range d.HiddenFields {
		delete(columns, f)
	}
	return columns
}

// HasColumn проверяет, объявлена ли колонка в ресурсе
func (d Definition) HasColumn(field string) bool {
	return d.Columns()[field]
}

// normalizeDirection приводит направление сортировки к asc/desc
func normalizeDirection(direction, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "asc":
		return "asc"
	case "desc":
		return "desc"
	}
	return fallback
}
