package crud

import "net/http"

// Kind вид результата операции
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindForbidden
	KindNotImplemented
	KindPersistence
)

// Result единый конверт результата изменяющих операций.
// При ошибке Data всегда nil.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Kind    Kind   `json:"-"`
}

// OK создает успешный результат
func OK(message string, data any) *Result {
	return &Result{Success: true, Message: message, Data: data, Kind: KindSuccess}
}

// Fail создает результат с ошибкой
func Fail(kind Kind, message string) *Result {
	if kind == KindSuccess {
		kind = KindError
	}
	return &Result{Success: false, Message: message, Kind: kind}
}

// Status возвращает HTTP статус для результата
func (r *Result) Status() int {
	switch r.Kind {
	case KindSuccess:
		return http.StatusOK
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
