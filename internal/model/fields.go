// Package model содержит приведение значений полей.
//
// Группа: UTILS - Общие утилиты
// Содержит: stringValue, intValue, timeValue
package model

import (
	"fmt"
	"time"
)

// stringValue приводит значение поля к строке
func stringValue(field string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("field %s: expected string, got %T", field, value)
	}
}

// intValue приводит значение поля к целому числу
func intValue(field string, value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("field %s: expected integer, got %T", field, value)
	}
}

// timeValue приводит значение поля к времени (nil означает NULL)
func timeValue(field string, value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return &v, nil
	case *time.Time:
		return v, nil
	default:
		return nil, fmt.Errorf("field %s: expected time, got %T", field, value)
	}
}

// contains проверяет вхождение строки в список
func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
