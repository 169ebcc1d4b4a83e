package crud

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"adminpanel/internal/model"
)

// FieldType тип поля входных данных
type FieldType int

const (
	String FieldType = iota
	Int
	Bool
	Time
)

// String возвращает имя типа
func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "integer"
	case Bool:
		return "boolean"
	case Time:
		return "datetime"
	default:
		return "unknown"
	}
}

// Schema описывает поля, которые ресурс принимает на вход
type Schema map[string]FieldType

// Payload входные данные после очистки и приведения типов
type Payload map[string]any

// reservedKeys служебные ключи форм, которые никогда не попадают в модель
var reservedKeys = []string{"_token", "_method"}

// timeLayouts поддерживаемые форматы даты и времени
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Prepare очищает сырые данные запроса: удаляет исключенные и служебные
// ключи, отклоняет неизвестные поля и приводит значения к типам схемы.
func (d Definition) Prepare(raw map[string]any) (Payload, error) {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		data[k] = v
	}
	for _, field := range d.ExcludeFields {
		delete(data, field)
	}
	for _, key := range reservedKeys {
		delete(data, key)
	}

	var errs model.ValidationErrors
	payload := make(Payload, len(data))
	for field, value := range data {
		typ, ok := d.Schema[field]
		if !ok {
			errs.Add(field, "unknown field")
			continue
		}
		coerced, err := typ.Coerce(value)
		if err != nil {
			errs.Add(field, fmt.Sprintf("must be a valid %s", typ))
			continue
		}
		payload[field] = coerced
	}

	if errs.HasErrors() {
		return nil, errs.Sorted()
	}
	return payload, nil
}

// Coerce приводит значение к типу поля. nil и пустые строки для
// нестроковых типов означают отсутствие значения.
func (t FieldType) Coerce(value any) (any, error) {
	if list, ok := value.([]string); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("expected single value, got %d", len(list))
		}
		value = list[0]
	}
	if value == nil {
		return nil, nil
	}

	switch t {
	case String:
		return coerceString(value)
	case Int:
		return coerceInt(value)
	case Bool:
		return coerceBool(value)
	case Time:
		return coerceTime(value)
	}
	return nil, fmt.Errorf("unsupported field type %d", t)
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return nil, fmt.Errorf("cannot convert %T to string", value)
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		return strconv.ParseInt(s, 10, 64)
	}
	return nil, fmt.Errorf("cannot convert %T to integer", value)
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "yes":
			return true, nil
		case "off", "no", "":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return nil, fmt.Errorf("cannot convert %T to boolean", value)
}

func coerceTime(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("cannot parse time %q", s)
	}
	return nil, fmt.Errorf("cannot convert %T to time", value)
}
