package crud

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeywordParam параметр быстрого поиска
const KeywordParam = "keyword"

// Operator оператор условия поиска
type Operator string

const (
	OpLike  Operator = "like"
	OpEqual Operator = "="
	OpIn    Operator = "in"
)

// Predicate условие выборки по одной колонке
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Compile строит условия поиска из параметров запроса. Условия
// объединяются через AND, отсутствующие и пустые параметры пропускаются.
func Compile(d Definition, params url.Values) []Predicate {
	var predicates []Predicate

	if d.QuickSearchField != "" {
		if keyword := normalizeKeyword(params.Get(KeywordParam)); keyword != "" {
			predicates = append(predicates, Predicate{
				Field: d.QuickSearchField,
				Op:    OpLike,
				Value: "%" + keyword + "%",
			})
		}
	}

	for _, field := range d.SearchFields {
		values, isList := lookupParam(params, field)
		if len(values) == 0 {
			continue
		}

		if isList {
			list := make([]any, 0, len(values))
			for _, v := range values {
				list = append(list, d.searchValue(field, v))
			}
			predicates = append(predicates, Predicate{Field: field, Op: OpIn, Value: list})
			continue
		}

		predicates = append(predicates, Predicate{Field: field, Op: OpEqual, Value: d.searchValue(field, values[0])})
	}

	return predicates
}

// lookupParam возвращает непустые значения параметра и признак списка.
// Списком считается ключ вида field[] или повторяющийся ключ.
func lookupParam(params url.Values, field string) ([]string, bool) {
	if raw, ok := params[field+"[]"]; ok {
		return nonEmpty(raw), true
	}

	raw := params[field]
	switch len(raw) {
	case 0:
		return nil, false
	case 1:
		if strings.TrimSpace(raw[0]) == "" {
			return nil, false
		}
		return raw, false
	default:
		return nonEmpty(raw), true
	}
}

// searchValue приводит значение к типу поля из схемы, если это возможно
func (d Definition) searchValue(field, value string) any {
	typ, ok := d.Schema[field]
	if !ok {
		return value
	}
	coerced, err := typ.Coerce(value)
	if err != nil || coerced == nil {
		return value
	}
	return coerced
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// normalizeKeyword убирает пробелы по краям и приводит строку к NFC
func normalizeKeyword(keyword string) string {
	return norm.NFC.String(strings.TrimSpace(keyword))
}
