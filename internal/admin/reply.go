package admin

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/model"
	"adminpanel/internal/respond"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const maxFormMemory = 10 << 20

var errBadBody = errors.New("invalid request body")

// wantsJSON проверяет, ждет ли клиент JSON конверт вместо редиректа.
// Запросы клиентского приложения с X-Inertia получают редирект.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get(PageHeader) == "true" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// redirectBack возвращает клиента на Referer того же хоста, иначе на fallback
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) && strings.HasPrefix(u.Path, "/") {
			target = u.RequestURI()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// complete отдает результат изменяющей операции
func complete(w http.ResponseWriter, r *http.Request, res *crud.Result, fallback string, logger *zap.Logger) {
	if wantsJSON(r) {
		respond.Result(w, res)
		return
	}

	flash := &Flash{}
	if res.Success {
		flash.Success = res.Message
		flash.Data = res.Data
	} else {
		flash.Error = res.Message
	}
	if err := SetFlash(w, flash); err != nil {
		logger.Warn("Failed to set flash", zap.Error(err))
	}
	redirectBack(w, r, fallback)
}

// failure отдает ошибку, прошедшую через границу движка. Ошибки
// валидации формы возвращаются на форму через flash.
func failure(w http.ResponseWriter, r *http.Request, err error, fallback string, logger *zap.Logger) {
	var verrs model.ValidationErrors
	if wantsJSON(r) || !errors.As(err, &verrs) {
		respond.Error(w, logger, err)
		return
	}

	flash := &Flash{Error: respond.MsgValidationFailed, Errors: verrs.Fields()}
	if err := SetFlash(w, flash); err != nil {
		logger.Warn("Failed to set flash", zap.Error(err))
	}
	redirectBack(w, r, fallback)
}

// parseInput читает тело запроса формы или JSON в плоский словарь.
// Поля вида ids[] и повторяющиеся ключи дают []string.
func parseInput(r *http.Request) (map[string]any, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		input := make(map[string]any)
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&input); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadBody, err)
		}
		return input, nil
	}

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}

	input := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		name := strings.TrimSuffix(key, "[]")
		if name != key || len(values) > 1 {
			input[name] = append([]string(nil), values...)
			continue
		}
		input[name] = values[0]
	}
	return input, nil
}

// listValue приводит значение ввода к списку строк. Строка режется по запятым.
func listValue(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return strings.Split(t, ",")
	case json.Number:
		return []string{t.String()}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

// stringValue приводит значение ввода к строке
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	}
	return fmt.Sprint(v)
}

// badBody отвечает на неразборчивое тело запроса
func badBody(w http.ResponseWriter, err error) {
	respond.Fail(w, http.StatusBadRequest, err.Error())
}
