// Package respond преобразует результаты движка ресурсов в HTTP ответы.
package respond

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/model"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Сообщения об ошибках уровня транспорта
const (
	MsgValidationFailed = "validation failed"
	MsgInternalError    = "internal server error"
)

// Envelope JSON конверт ответа API
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON пишет payload с указанным статусом
func JSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, MsgInternalError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// Success пишет успешный конверт
func Success(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Fail пишет конверт с ошибкой
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Result пишет результат изменяющей операции
func Result(w http.ResponseWriter, res *crud.Result) {
	env := Envelope{Success: res.Success, Message: res.Message}
	if res.Success {
		env.Data = res.Data
	}
	JSON(w, res.Status(), env)
}

// Error пишет ошибку, прошедшую через границу движка.
// Неизвестные ошибки логируются, клиент получает общее сообщение.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	env := Envelope{Success: false, Message: MessageFor(err)}

	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		env.Errors = verrs.Fields()
	}
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("Request failed", zap.Error(err))
	}

	JSON(w, status, env)
}

// StatusFor возвращает HTTP статус для ошибки
func StatusFor(err error) int {
	var verrs model.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, crud.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, crud.ErrUnknownField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor возвращает сообщение, безопасное для показа клиенту
func MessageFor(err error) string {
	switch StatusFor(err) {
	case http.StatusNotFound:
		return crud.ErrNotFound.Error()
	case http.StatusUnprocessableEntity:
		return MsgValidationFailed
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusOK:
		return ""
	default:
		return MsgInternalError
	}
}
