// Package admin содержит серверную админку: страницы ресурсов,
// главную и уведомления текущего пользователя.
package admin

import (
	"adminpanel/internal/middleware"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PageHeader заголовок, которым клиент запрашивает объект страницы вместо HTML
const PageHeader = "X-Inertia"

// Page объект страницы для клиентского приложения
type Page struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
	URL       string         `json:"url"`
	Version   string         `json:"version"`
}

var shell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<div id="app" data-page="{{.Page}}"></div>
</body>
</html>
`))

// Renderer отдает страницы админки
type Renderer struct {
	appName string
	version string
	lang    language.Tag
	logger  *zap.Logger
}

// NewRenderer создает новый renderer
func NewRenderer(appName, version string, logger *zap.Logger) *Renderer {
	return &Renderer{
		appName: appName,
		version: version,
		lang:    language.English,
		logger:  logger,
	}
}

// Render отдает страницу компонента. К props добавляются текущий
// пользователь и одноразовый flash.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, component string, props map[string]any) {
	rd.RenderStatus(w, r, http.StatusOK, component, props)
}

// RenderStatus отдает страницу с указанным статусом
func (rd *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, component string, props map[string]any) {
	if props == nil {
		props = make(map[string]any)
	}
	props["auth"] = map[string]any{"user": middleware.CurrentUser(r.Context())}
	flash := TakeFlash(w, r)
	if flash == nil {
		flash = &Flash{}
	}
	props["flash"] = flash
	errs := flash.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	props["errors"] = errs

	page := Page{
		Component: component,
		Props:     props,
		URL:       r.URL.RequestURI(),
		Version:   rd.version,
	}

	body, err := json.Marshal(page)
	if err != nil {
		rd.logger.Error("Failed to encode page", zap.String("component", component), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Vary", PageHeader)
	if r.Header.Get(PageHeader) == "true" || wantsJSON(r) {
		w.Header().Set(PageHeader, "true")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err = shell.Execute(w, struct {
		Title string
		Page  string
	}{
		Title: rd.PageTitle(component),
		Page:  string(body),
	})
	if err != nil {
		rd.logger.Error("Failed to render page", zap.String("component", component), zap.Error(err))
	}
}

// PageTitle строит заголовок окна из имени компонента: "User/Index" -> "User Index - Admin Panel"
func (rd *Renderer) PageTitle(component string) string {
	words := strings.FieldsFunc(component, func(r rune) bool {
		return r == '/' || r == '_' || r == '-'
	})
	if len(words) == 0 {
		return rd.appName
	}
	// Caser хранит состояние, поэтому создается на каждый вызов
	return cases.Title(rd.lang).String(strings.ToLower(strings.Join(words, " "))) + " - " + rd.appName
}
