package crud

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
)

// ListParams параметры запроса списка
type ListParams struct {
	Filters url.Values
	Sort    string
	Order   string
	Page    int
	PerPage int
}

// ParseListParams читает параметры списка из query string
func ParseListParams(query url.Values) ListParams {
	return ListParams{
		Filters: query,
		Sort:    query.Get("sort"),
		Order:   query.Get("order"),
		Page:    atoi(query.Get("page")),
		PerPage: atoi(query.Get("per_page")),
	}
}

// Page страница результатов
type Page[T any] struct {
	Items    []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"current_page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

// NewPage собирает страницу и вычисляет номер последней
func NewPage[T any](items []T, total, page, perPage int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}
	return &Page[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage,
	}
}

// applyPredicates добавляет условия поиска к запросу
func applyPredicates(q *bun.SelectQuery, predicates []Predicate) *bun.SelectQuery {
	for _, p := range predicates {
		switch p.Op {
		case OpLike:
			q = q.Where("?TableAlias.? LIKE ?", bun.Ident(p.Field), p.Value)
		case OpIn:
			q = q.Where("?TableAlias.? IN (?)", bun.Ident(p.Field), bun.In(p.Value))
		default:
			q = q.Where("?TableAlias.? = ?", bun.Ident(p.Field), p.Value)
		}
	}
	return q
}

// applyRelations добавляет предзагрузку связей
func applyRelations(q *bun.SelectQuery, relations []string) *bun.SelectQuery {
	for _, rel := range relations {
		q = q.Relation(rel)
	}
	return q
}

// applyOrder добавляет сортировку. Направление уже нормализовано до asc/desc.
func applyOrder(q *bun.SelectQuery, field, direction string) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.? "+strings.ToUpper(direction), bun.Ident(field))
}

// applyPage ограничивает выборку одной страницей
func applyPage(q *bun.SelectQuery, page, perPage int) *bun.SelectQuery {
	return q.Limit(perPage).Offset((page - 1) * perPage)
}

// resolveOrder выбирает поле и направление сортировки. Поле из запроса
// принимается только если оно объявлено в ресурсе.
func (d Definition) resolveOrder(field, direction string) (string, string) {
	field = strings.TrimSpace(field)
	if field == "" || !d.HasColumn(field) {
		field = d.OrderField
	}
	return field, normalizeDirection(direction, d.OrderDirection)
}

// resolvePaging ограничивает номер страницы и размер страницы
func (d Definition) resolvePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = d.PerPage
	}
	if perPage > d.MaxPerPage {
		perPage = d.MaxPerPage
	}
	return page, perPage
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
