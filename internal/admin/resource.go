package admin

import (
	"adminpanel/internal/crud"
	"adminpanel/internal/respond"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Resource HTTP обработчики обобщенного ресурса
type Resource[T any, P crud.Model[T]] struct {
	engine   *crud.Engine[T, P]
	renderer *Renderer
	base     string
	logger   *zap.Logger
}

// Mount регистрирует маршруты ресурса под префиксом base, например "/user"
func Mount[T any, P crud.Model[T]](router *mux.Router, base string, engine *crud.Engine[T, P], renderer *Renderer, logger *zap.Logger) *Resource[T, P] {
	h := &Resource[T, P]{
		engine:   engine,
		renderer: renderer,
		base:     base,
		logger:   logger.With(zap.String("resource", engine.Definition().Name)),
	}

	s := router.PathPrefix(base).Subrouter()
	s.HandleFunc("", h.index).Methods(http.MethodGet)
	s.HandleFunc("", h.store).Methods(http.MethodPost)
	s.HandleFunc("/create", h.create).Methods(http.MethodGet)
	s.HandleFunc("/select", h.selectOptions).Methods(http.MethodGet)
	s.HandleFunc("/export", h.export).Methods(http.MethodGet)
	s.HandleFunc("/sort", h.sort).Methods(http.MethodPost)
	s.HandleFunc("/batch-destroy", h.batchDestroy).Methods(http.MethodPost)
	s.HandleFunc("/{id:[0-9]+}", h.show).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}", h.update).Methods(http.MethodPut, http.MethodPatch)
	s.HandleFunc("/{id:[0-9]+}/edit", h.edit).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/status", h.changeField).Methods(http.MethodPost)
	s.HandleFunc("/{ids:[0-9,]+}", h.destroy).Methods(http.MethodDelete)

	return h
}

func (h *Resource[T, P]) index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.engine.List(r.Context(), crud.ParseListParams(query))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.renderer.Render(w, r, h.engine.Definition().IndexPage, map[string]any{
		"list":  page,
		"query": flatten(query),
	})
}

func (h *Resource[T, P]) create(w http.ResponseWriter, r *http.Request) {
	form := h.engine.CreateForm()
	h.renderer.Render(w, r, form.Component, map[string]any{
		"row":      form.Row,
		"readonly": form.Readonly,
	})
}

func (h *Resource[T, P]) show(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, true)
}

func (h *Resource[T, P]) edit(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, false)
}

func (h *Resource[T, P]) form(w http.ResponseWriter, r *http.Request, readonly bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var (
		row P
		err error
	)
	if readonly {
		row, err = h.engine.Show(r.Context(), id)
	} else {
		row, err = h.engine.EditForm(r.Context(), id)
	}
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.renderer.Render(w, r, h.engine.Definition().FormPage, map[string]any{
		"row":      row,
		"readonly": readonly,
	})
}

func (h *Resource[T, P]) store(w http.ResponseWriter, r *http.Request) {
	input, err := parseInput(r)
	if err != nil {
		badBody(w, err)
		return
	}

	res, err := h.engine.Store(r.Context(), input)
	if err != nil {
		failure(w, r, err, h.base+"/create", h.logger)
		return
	}
	complete(w, r, res, h.base, h.logger)
}

func (h *Resource[T, P]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, err := parseInput(r)
	if err != nil {
		badBody(w, err)
		return
	}

	res, err := h.engine.Update(r.Context(), id, input)
	if err != nil {
		failure(w, r, err, h.base+"/"+strconv.FormatInt(id, 10)+"/edit", h.logger)
		return
	}
	complete(w, r, res, h.base, h.logger)
}

func (h *Resource[T, P]) destroy(w http.ResponseWriter, r *http.Request) {
	res := h.engine.Destroy(r.Context(), mux.Vars(r)["ids"])
	complete(w, r, res, h.base, h.logger)
}

func (h *Resource[T, P]) batchDestroy(w http.ResponseWriter, r *http.Request) {
	input, err := parseInput(r)
	if err != nil {
		badBody(w, err)
		return
	}

	res := h.engine.BatchDestroy(r.Context(), listValue(input["ids"]))
	complete(w, r, res, h.base, h.logger)
}

func (h *Resource[T, P]) changeField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, err := parseInput(r)
	if err != nil {
		badBody(w, err)
		return
	}

	res, err := h.engine.ChangeField(r.Context(), id, stringValue(input["field"]), input["value"])
	if err != nil {
		failure(w, r, err, h.base, h.logger)
		return
	}
	complete(w, r, res, h.base, h.logger)
}

func (h *Resource[T, P]) sort(w http.ResponseWriter, r *http.Request) {
	input, err := parseInput(r)
	if err != nil {
		badBody(w, err)
		return
	}

	res := h.engine.Reorder(r.Context(), listValue(input["ids"]), stringValue(input["field"]))
	complete(w, r, res, h.base, h.logger)
}

func (h *Resource[T, P]) selectOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.engine.SelectOptions(r.Context(), r.URL.Query())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.Success(w, "", options)
}

func (h *Resource[T, P]) export(w http.ResponseWriter, r *http.Request) {
	download, res := h.engine.Export(r.Context(), r.URL.Query())
	if !res.Success {
		complete(w, r, res, h.base, h.logger)
		return
	}

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Body)
}

// pathID читает {id} из пути. Маршрут уже гарантирует цифры, ошибка
// возможна только при переполнении.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respond.Fail(w, http.StatusNotFound, crud.ErrNotFound.Error())
		return 0, false
	}
	return id, true
}

// flatten превращает query string в словарь для повторного заполнения фильтров
func flatten(query url.Values) map[string]any {
	out := make(map[string]any, len(query))
	for key, values := range query {
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return out
}
