package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"adminpanel/internal/model"
)

// Engine обобщенный контроллер ресурса. T - модель bun, P - указатель на нее.
type Engine[T any, P Model[T]] struct {
	db     *bun.DB
	def    Definition
	rules  Rules
	logger *zap.Logger
}

// Form контекст страницы формы
type Form[T any] struct {
	Component string `json:"component"`
	Row       *T     `json:"row"`
	Readonly  bool   `json:"readonly"`
}

// Option элемент выпадающего списка
type Option struct {
	Label any `json:"label"`
	Value any `json:"value"`
}

// NewEngine создает движок для ресурса. Правила валидации берутся из реестра
// один раз при создании.
func NewEngine[T any, P Model[T]](db *bun.DB, def Definition, registry *Registry, logger *zap.Logger) (*Engine[T, P], error) {
	def = def.withDefaults()
	if err := def.validate(); err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("resource %s: database is required", def.Name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine[T, P]{
		db:     db,
		def:    def,
		logger: logger.With(zap.String("resource", def.Name)),
	}
	if def.Validate {
		if rules, ok := registry.Lookup(def.Name); ok {
			e.rules = rules
		}
	}

	return e, nil
}

// Definition возвращает определение ресурса
func (e *Engine[T, P]) Definition() Definition {
	return e.def
}

// List возвращает страницу записей с учетом поиска и сортировки
func (e *Engine[T, P]) List(ctx context.Context, params ListParams) (*Page[T], error) {
	page, perPage := e.def.resolvePaging(params.Page, params.PerPage)
	field, direction := e.def.resolveOrder(params.Sort, params.Order)

	var items []T
	q := e.db.NewSelect().Model(&items)
	q = applyRelations(q, e.def.Relations)
	if len(e.def.ListFields) > 0 {
		q = q.Column(e.def.ListFields...)
	}
	q = applyPredicates(q, Compile(e.def, params.Filters))
	q = applyOrder(q, field, direction)
	q = applyPage(q, page, perPage)

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", e.def.Name, err)
	}

	return NewPage(items, total, page, perPage), nil
}

// CreateForm возвращает пустой контекст формы
func (e *Engine[T, P]) CreateForm() Form[T] {
	return Form[T]{Component: e.def.FormPage}
}

// Show возвращает запись с предзагруженными связями
func (e *Engine[T, P]) Show(ctx context.Context, id int64) (P, error) {
	return e.find(ctx, e.db, id)
}

// EditForm возвращает запись для формы редактирования
func (e *Engine[T, P]) EditForm(ctx context.Context, id int64) (P, error) {
	return e.find(ctx, e.db, id)
}

// Store создает запись из входных данных
func (e *Engine[T, P]) Store(ctx context.Context, raw map[string]any) (*Result, error) {
	payload, err := e.def.Prepare(raw)
	if err != nil {
		return nil, err
	}
	if err := e.validate(ctx, SceneCreate, 0, payload); err != nil {
		return nil, err
	}

	row := P(new(T))
	if d, ok := any(row).(Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := fill(row, payload); err != nil {
		return nil, err
	}

	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		return e.rollback("store", 0, err), nil
	}

	e.logger.Info("Record created", zap.Int64("id", row.PrimaryKey()))
	return OK(MsgCreated, row), nil
}

// Update изменяет существующую запись
func (e *Engine[T, P]) Update(ctx context.Context, id int64, raw map[string]any) (*Result, error) {
	row, err := e.find(ctx, e.db, id)
	if err != nil {
		return nil, err
	}

	payload, err := e.def.Prepare(raw)
	if err != nil {
		return nil, err
	}
	for field, value := range payload {
		if e.locked(id, field) && changed(row, field, value) {
			e.logger.Warn("Rejected protected field change", zap.Int64("id", id), zap.String("field", field))
			return Fail(KindForbidden, MsgFieldProtected), nil
		}
	}
	if err := e.validate(ctx, SceneUpdate, id, payload); err != nil {
		return nil, err
	}
	if err := fill(row, payload); err != nil {
		return nil, err
	}

	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Model(row).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return e.rollback("update", id, err), nil
	}

	e.logger.Info("Record updated", zap.Int64("id", id))
	return OK(MsgUpdated, row), nil
}

// Destroy удаляет одну запись или список через запятую.
// Отсутствующие ключи пропускаются.
func (e *Engine[T, P]) Destroy(ctx context.Context, ids string) *Result {
	return e.destroy(ctx, parseIDs([]string{ids}))
}

// BatchDestroy удаляет выбранные записи
func (e *Engine[T, P]) BatchDestroy(ctx context.Context, ids []string) *Result {
	if len(nonEmpty(ids)) == 0 {
		return Fail(KindError, MsgSelectToDelete)
	}
	return e.destroy(ctx, parseIDs(ids))
}

func (e *Engine[T, P]) destroy(ctx context.Context, keys []int64) *Result {
	allowed := keys
	if e.def.Protected != nil {
		allowed = make([]int64, 0, len(keys))
		for _, id := range keys {
			if e.def.Protected(id) {
				e.logger.Warn("Skipping protected record", zap.Int64("id", id))
				continue
			}
			allowed = append(allowed, id)
		}
		if len(allowed) == 0 && len(keys) > 0 {
			return Fail(KindForbidden, e.def.ProtectedMessage)
		}
	}

	var deleted int64
	err := e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, id := range allowed {
			res, err := tx.NewDelete().
				Model((*T)(nil)).
				Where("? = ?", bun.Ident(e.def.PrimaryKey), id).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to delete %s #%d: %w", e.def.Name, id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return e.rollback("destroy", 0, err)
	}

	if deleted == 0 {
		return Fail(KindError, MsgNoneDeleted)
	}

	e.logger.Info("Records deleted", zap.Int64("count", deleted))
	return OK(fmt.Sprintf("deleted %d records", deleted), map[string]int64{"deleted": deleted})
}

// ChangeField меняет одно поле записи. Поле должно быть разрешено для записи.
func (e *Engine[T, P]) ChangeField(ctx context.Context, id int64, field string, raw any) (*Result, error) {
	row, err := e.find(ctx, e.db, id)
	if err != nil {
		return nil, err
	}

	field = strings.TrimSpace(field)
	if field == "" {
		field = DefaultStatusField
	}

	typ, declared := e.def.Schema[field]
	if !declared || !isFillable(row, field) || e.excluded(field) || hasField(e.def.HiddenFields, field) {
		e.logger.Warn("Rejected field change", zap.Int64("id", id), zap.String("field", field))
		return Fail(KindForbidden, MsgFieldForbidden), nil
	}
	if e.locked(id, field) {
		e.logger.Warn("Rejected protected field change", zap.Int64("id", id), zap.String("field", field))
		return Fail(KindForbidden, MsgFieldProtected), nil
	}

	value, err := typ.Coerce(raw)
	if err != nil {
		return nil, model.ValidationErrors{{Field: field, Message: fmt.Sprintf("must be a valid %s", typ)}}
	}
	if err := row.Set(field, value); err != nil {
		return nil, model.ValidationErrors{{Field: field, Message: err.Error()}}
	}

	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Model(row).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return e.rollback("change_field", id, err), nil
	}

	return OK(MsgStatusUpdated, row), nil
}

// Reorder присваивает записям убывающий ранг: первая получает len(ids),
// последняя 1. Все обновления выполняются в одной транзакции.
func (e *Engine[T, P]) Reorder(ctx context.Context, ids []string, field string) *Result {
	field = strings.TrimSpace(field)
	if field == "" {
		field = e.def.SortField
	}
	if typ, ok := e.def.Schema[field]; !ok || typ != Int || e.excluded(field) {
		return Fail(KindForbidden, MsgFieldForbidden)
	}

	keys := parseIDs(ids)
	err := e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, id := range keys {
			rank := len(keys) - i
			_, err := tx.NewUpdate().
				Model((*T)(nil)).
				Set("? = ?", bun.Ident(field), rank).
				Where("? = ?", bun.Ident(e.def.PrimaryKey), id).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to sort %s #%d: %w", e.def.Name, id, err)
			}
		}
		return nil
	})
	if err != nil {
		return e.rollback("reorder", 0, err)
	}

	return OK(MsgSortUpdated, nil)
}

// SelectOptions возвращает пары label/value для выпадающих списков
func (e *Engine[T, P]) SelectOptions(ctx context.Context, params url.Values) ([]Option, error) {
	label := strings.TrimSpace(params.Get("label"))
	if label == "" {
		label = DefaultLabelField
	}
	value := strings.TrimSpace(params.Get("value"))
	if value == "" {
		value = DefaultValueField
	}
	for _, field := range []string{label, value} {
		if !e.def.HasColumn(field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}

	var rows []map[string]interface{}
	q := e.db.NewSelect().
		Model((*T)(nil)).
		ColumnExpr("?TableAlias.? AS ?", bun.Ident(value), bun.Ident("value")).
		ColumnExpr("?TableAlias.? AS ?", bun.Ident(label), bun.Ident("label"))
	q = applyPredicates(q, Compile(e.def, params))
	q = applyOrder(q, e.def.OrderField, e.def.OrderDirection)

	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to select %s options: %w", e.def.Name, err)
	}

	options := make([]Option, 0, len(rows))
	for _, row := range rows {
		options = append(options, Option{Label: plain(row["label"]), Value: plain(row["value"])})
	}
	return options, nil
}

// Export выгружает записи, подходящие под фильтры списка.
// Без Exporter возвращает ошибку "не реализовано".
func (e *Engine[T, P]) Export(ctx context.Context, params url.Values) (*Download, *Result) {
	if e.def.Exporter == nil {
		return nil, Fail(KindNotImplemented, MsgExportNotAllowed)
	}

	list := ParseListParams(params)
	field, direction := e.def.resolveOrder(list.Sort, list.Order)

	var items []T
	q := e.db.NewSelect().Model(&items)
	q = applyRelations(q, e.def.Relations)
	q = applyPredicates(q, Compile(e.def, params))
	q = applyOrder(q, field, direction)
	if err := q.Scan(ctx); err != nil {
		e.logger.Error("Export query failed", zap.Error(err))
		return nil, Fail(KindPersistence, err.Error())
	}

	rows := make([]Record, len(items))
	for i := range items {
		rows[i] = P(&items[i])
	}

	download, err := e.def.Exporter.Export(ctx, rows)
	if err != nil {
		e.logger.Error("Export failed", zap.Error(err))
		return nil, Fail(KindError, err.Error())
	}

	e.logger.Info("Records exported", zap.Int("count", len(rows)))
	return download, OK("exported successfully", nil)
}

// find ищет запись по первичному ключу
func (e *Engine[T, P]) find(ctx context.Context, db bun.IDB, id int64) (P, error) {
	row := P(new(T))

	q := db.NewSelect().Model(row)
	q = applyRelations(q, e.def.Relations)
	err := q.Where("?TableAlias.? = ?", bun.Ident(e.def.PrimaryKey), id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s #%d", ErrNotFound, e.def.Name, id)
		}
		return nil, fmt.Errorf("failed to find %s #%d: %w", e.def.Name, id, err)
	}

	return row, nil
}

// validate применяет правила ресурса, если валидация включена
func (e *Engine[T, P]) validate(ctx context.Context, scene Scene, id int64, payload Payload) error {
	if !e.def.Validate || e.rules == nil {
		return nil
	}
	return e.rules.Validate(ctx, Input{Scene: scene, ID: id, Payload: payload, DB: e.db})
}

// rollback логирует откат транзакции и превращает ошибку в результат
func (e *Engine[T, P]) rollback(operation string, id int64, err error) *Result {
	e.logger.Warn("Transaction rolled back",
		zap.String("operation", operation),
		zap.Int64("id", id),
		zap.Error(err))
	return Fail(KindPersistence, err.Error())
}

func (e *Engine[T, P]) excluded(field string) bool {
	return hasField(e.def.ExcludeFields, field)
}

// locked сообщает, что поле защищенной записи менять нельзя
func (e *Engine[T, P]) locked(id int64, field string) bool {
	return e.def.Protected != nil && e.def.Protected(id) && hasField(e.def.ProtectedFields, field)
}

// changed сообщает, отличается ли значение от текущего значения поля записи
func changed(row Record, field string, value any) bool {
	current, ok := row.Get(field)
	if !ok {
		return true
	}
	return fmt.Sprint(plain(current)) != fmt.Sprint(plain(value))
}

func hasField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

// fill записывает в модель разрешенные поля. Неразрешенные поля пропускаются.
func fill(row Record, payload Payload) error {
	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs model.ValidationErrors
	for _, field := range fields {
		if !isFillable(row, field) {
			continue
		}
		if err := row.Set(field, payload[field]); err != nil {
			errs.Add(field, err.Error())
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// parseIDs разбирает ключи, в том числе перечисленные через запятую.
// Нечисловые значения пропускаются.
func parseIDs(values []string) []int64 {
	var ids []int64
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// plain приводит значения драйвера к JSON-дружественным типам
func plain(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
