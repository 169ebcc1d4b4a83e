package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"adminpanel/internal/model"
)

// article тестовая модель ресурса
type article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	Name   string `bun:"name,notnull" json:"name"`
	Status int64  `bun:"status,notnull,default:0" json:"status"`
	Sort   int64  `bun:"sort,notnull,default:0" json:"sort"`
	Secret string `bun:"secret,notnull,default:''" json:"-"`
}

func (a *article) PrimaryKey() int64  { return a.ID }
func (a *article) Fillable() []string { return []string{"name", "status", "sort"} }

func (a *article) Get(field string) (any, bool) {
	switch field {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	case "status":
		return a.Status, true
	case "sort":
		return a.Sort, true
	}
	return nil, false
}

func (a *article) Set(field string, value any) error {
	switch field {
	case "name":
		s, _ := value.(string)
		a.Name = s
	case "status":
		n, _ := value.(int64)
		a.Status = n
	case "sort":
		n, _ := value.(int64)
		a.Sort = n
	case "secret":
		s, _ := value.(string)
		a.Secret = s
	default:
		return fmt.Errorf("unknown field %s", field)
	}
	return nil
}

func articleDefinition() Definition {
	return Definition{
		Name:             "article",
		IndexPage:        "Article/Index",
		FormPage:         "Article/Form",
		QuickSearchField: "name",
		SearchFields:     []string{"status"},
		Schema: Schema{
			"name":   String,
			"status": Int,
			"sort":   Int,
			"secret": String,
		},
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*article)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return db
}

func newTestEngine(t *testing.T, db *bun.DB, def Definition, registry *Registry) *Engine[article, *article] {
	t.Helper()
	engine, err := NewEngine[article, *article](db, def, registry, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func seedArticles(t *testing.T, db *bun.DB, names ...string) {
	t.Helper()
	rows := make([]article, 0, len(names))
	for i, name := range names {
		rows = append(rows, article{Name: name, Status: int64(i % 2)})
	}
	_, err := db.NewInsert().Model(&rows).Exec(context.Background())
	require.NoError(t, err)
}

func loadArticle(t *testing.T, db *bun.DB, id int64) *article {
	t.Helper()
	row := new(article)
	require.NoError(t, db.NewSelect().Model(row).Where("id = ?", id).Scan(context.Background()))
	return row
}

func countArticles(t *testing.T, db *bun.DB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*article)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestNewEngine_RequiresNameAndSchema(t *testing.T) {
	db := newTestDB(t)

	_, err := NewEngine[article, *article](db, Definition{Schema: Schema{"name": String}}, nil, nil)
	assert.Error(t, err)

	_, err = NewEngine[article, *article](db, Definition{Name: "article"}, nil, nil)
	assert.Error(t, err)
}

func TestEngine_ListWithoutFiltersReturnsAllInDefaultOrder(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "Alice", "Bob", "alina")
	engine := newTestEngine(t, db, articleDefinition(), nil)

	page, err := engine.List(context.Background(), ListParams{Filters: url.Values{"keyword": {""}}})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []int64{3, 2, 1}, []int64{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
}

func TestEngine_ListSearch(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "Alice", "Bob", "alina", "Carl")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters url.Values
		want    []int64
	}{
		{name: "keyword substring", filters: url.Values{"keyword": {"li"}}, want: []int64{3, 1}},
		{name: "exact status", filters: url.Values{"status": {"1"}}, want: []int64{4, 2}},
		{name: "status list", filters: url.Values{"status[]": {"0", "1"}}, want: []int64{4, 3, 2, 1}},
		{name: "keyword and status", filters: url.Values{"keyword": {"li"}, "status": {"0"}}, want: []int64{3, 1}},
		{name: "empty status ignored", filters: url.Values{"status": {""}}, want: []int64{4, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := engine.List(ctx, ListParams{Filters: tt.filters})
			require.NoError(t, err)

			var ids []int64
			for _, item := range page.Items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestEngine_ListSortFallsBackForUndeclaredField(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "b", "a", "c")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	page, err := engine.List(ctx, ListParams{Sort: "name", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "a", page.Items[0].Name)

	page, err = engine.List(ctx, ListParams{Sort: "name; DROP TABLE articles", Order: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Items[0].ID)
}

func TestEngine_PaginationInvariant(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "b", "c", "d", "e", "f", "g")
	def := articleDefinition()
	def.PerPage = 3
	def.MaxPerPage = 5
	engine := newTestEngine(t, db, def, nil)

	for _, page := range []int{-1, 0, 1, 2, 3, 10} {
		for _, perPage := range []int{-5, 0, 1, 3, 7, 50} {
			t.Run(fmt.Sprintf("page=%d/per_page=%d", page, perPage), func(t *testing.T) {
				result, err := engine.List(context.Background(), ListParams{Page: page, PerPage: perPage})
				require.NoError(t, err)

				assert.LessOrEqual(t, len(result.Items), result.PerPage)
				assert.GreaterOrEqual(t, result.Total, len(result.Items))
				assert.LessOrEqual(t, result.PerPage, 5)
				assert.GreaterOrEqual(t, result.Page, 1)
				assert.Equal(t, 7, result.Total)
			})
		}
	}
}

func TestEngine_StoreStripsExcludedAndReservedKeys(t *testing.T) {
	db := newTestDB(t)
	def := articleDefinition()
	def.ExcludeFields = []string{"status"}
	engine := newTestEngine(t, db, def, nil)

	res, err := engine.Store(context.Background(), map[string]any{
		"name":    "hello",
		"status":  "7",
		"_token":  "csrf",
		"_method": "PUT",
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	row := loadArticle(t, db, 1)
	assert.Equal(t, "hello", row.Name)
	assert.Equal(t, int64(0), row.Status)
}

func TestEngine_StoreIgnoresNonFillableSchemaField(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db, articleDefinition(), nil)

	res, err := engine.Store(context.Background(), map[string]any{"name": "x", "secret": "s3cr3t"})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "", loadArticle(t, db, 1).Secret)
}

func TestEngine_StoreRejectsUnknownField(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db, articleDefinition(), nil)

	res, err := engine.Store(context.Background(), map[string]any{"name": "x", "is_admin": "1"})
	assert.Nil(t, res)

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, map[string]string{"is_admin": "unknown field"}, verrs.Fields())
	assert.Equal(t, 0, countArticles(t, db))
}

func TestEngine_StoreRunsRegisteredRules(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry()
	registry.Register("article", FieldRules{
		"name": {Required(), MaxLen(5), Unique("articles", "name")},
	})
	def := articleDefinition()
	def.Validate = true
	engine := newTestEngine(t, db, def, registry)
	ctx := context.Background()

	res, err := engine.Store(ctx, map[string]any{"name": "short"})
	require.NoError(t, err)
	require.True(t, res.Success)

	_, err = engine.Store(ctx, map[string]any{"name": "short"})
	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "already taken", verrs.Fields()["name"])

	_, err = engine.Store(ctx, map[string]any{"status": "1"})
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "is required", verrs.Fields()["name"])

	assert.Equal(t, 1, countArticles(t, db))
}

func TestEngine_ValidationDisabledSkipsRegistry(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry()
	registry.Register("article", RulesFunc(func(context.Context, Input) error {
		return model.ValidationErrors{{Field: "name", Message: "never"}}
	}))
	engine := newTestEngine(t, db, articleDefinition(), registry)

	res, err := engine.Store(context.Background(), map[string]any{"name": "ok"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestEngine_StorePersistenceFailureReturnsErrorEnvelope(t *testing.T) {
	db := newTestDB(t)
	_, err := db.ExecContext(context.Background(),
		`CREATE TRIGGER articles_no_insert BEFORE INSERT ON articles BEGIN SELECT RAISE(ABORT, 'insert failure'); END;`)
	require.NoError(t, err)
	engine := newTestEngine(t, db, articleDefinition(), nil)

	res, err := engine.Store(context.Background(), map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, KindPersistence, res.Kind)
	assert.Contains(t, res.Message, "insert failure")
	assert.Nil(t, res.Data)
	assert.Equal(t, 0, countArticles(t, db))
}

func TestEngine_ShowAndUpdate(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "one")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	row, err := engine.Show(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", row.Name)

	_, err = engine.Show(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = engine.EditForm(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := engine.Update(ctx, 1, map[string]any{"name": "uno", "sort": float64(9)})
	require.NoError(t, err)
	require.True(t, res.Success)

	updated := loadArticle(t, db, 1)
	assert.Equal(t, "uno", updated.Name)
	assert.Equal(t, int64(9), updated.Sort)

	_, err = engine.Update(ctx, 42, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_CreateForm(t *testing.T) {
	engine := newTestEngine(t, newTestDB(t), articleDefinition(), nil)

	form := engine.CreateForm()
	assert.Equal(t, "Article/Form", form.Component)
	assert.Nil(t, form.Row)
}

func TestEngine_DestroyIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "b", "c")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	res := engine.Destroy(ctx, "1,2,99")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, map[string]int64{"deleted": 2}, res.Data)

	res = engine.Destroy(ctx, "1,2,99")
	assert.False(t, res.Success)
	assert.Equal(t, MsgNoneDeleted, res.Message)
	assert.Nil(t, res.Data)

	assert.Equal(t, 1, countArticles(t, db))
}

func TestEngine_BatchDestroy(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "b", "c")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	res := engine.BatchDestroy(ctx, nil)
	assert.False(t, res.Success)
	assert.Equal(t, MsgSelectToDelete, res.Message)

	res = engine.BatchDestroy(ctx, []string{"", " "})
	assert.Equal(t, MsgSelectToDelete, res.Message)

	res = engine.BatchDestroy(ctx, []string{"1", "3"})
	require.True(t, res.Success)
	assert.Equal(t, 1, countArticles(t, db))
}

func TestEngine_DestroyProtected(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "root", "other")
	def := articleDefinition()
	def.Protected = func(id int64) bool { return id == 1 }
	def.ProtectedMessage = "root cannot be deleted"
	engine := newTestEngine(t, db, def, nil)
	ctx := context.Background()

	res := engine.Destroy(ctx, "1")
	assert.False(t, res.Success)
	assert.Equal(t, KindForbidden, res.Kind)
	assert.Equal(t, "root cannot be deleted", res.Message)
	assert.Equal(t, 2, countArticles(t, db))

	res = engine.Destroy(ctx, "1,2")
	require.True(t, res.Success)
	assert.Equal(t, 1, countArticles(t, db))
	assert.Equal(t, "root", loadArticle(t, db, 1).Name)
}

func TestEngine_BatchDestroyRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "b", "c")
	_, err := db.ExecContext(context.Background(),
		`CREATE TRIGGER articles_no_delete BEFORE DELETE ON articles WHEN OLD.id = 3 BEGIN SELECT RAISE(ABORT, 'delete failure'); END;`)
	require.NoError(t, err)
	engine := newTestEngine(t, db, articleDefinition(), nil)

	res := engine.BatchDestroy(context.Background(), []string{"1", "2", "3"})
	assert.False(t, res.Success)
	assert.Equal(t, KindPersistence, res.Kind)
	assert.Equal(t, 3, countArticles(t, db))
}

func TestEngine_ChangeField(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	res, err := engine.ChangeField(ctx, 1, "status", "1")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(1), loadArticle(t, db, 1).Status)

	res, err = engine.ChangeField(ctx, 1, "", "0")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(0), loadArticle(t, db, 1).Status)

	_, err = engine.ChangeField(ctx, 9, "status", "1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = engine.ChangeField(ctx, 1, "status", "abc")
	var verrs model.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestEngine_ChangeFieldRejectsNonFillable(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	before := loadArticle(t, db, 1)

	for _, field := range []string{"secret", "id", "password", "name; --"} {
		t.Run(field, func(t *testing.T) {
			res, err := engine.ChangeField(context.Background(), 1, field, "pwned")
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, KindForbidden, res.Kind)
			assert.Equal(t, MsgFieldForbidden, res.Message)
			assert.Equal(t, before, loadArticle(t, db, 1))
		})
	}
}

func TestEngine_ProtectedAndHiddenFields(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "root", "other")
	def := articleDefinition()
	def.Protected = func(id int64) bool { return id == 1 }
	def.ProtectedFields = []string{"status"}
	def.HiddenFields = []string{"name"}
	engine := newTestEngine(t, db, def, nil)
	ctx := context.Background()

	res, err := engine.ChangeField(ctx, 1, "status", "1")
	require.NoError(t, err)
	assert.Equal(t, KindForbidden, res.Kind)
	assert.Equal(t, MsgFieldProtected, res.Message)
	assert.Equal(t, int64(0), loadArticle(t, db, 1).Status)

	res, err = engine.Update(ctx, 1, map[string]any{"status": "1"})
	require.NoError(t, err)
	assert.Equal(t, KindForbidden, res.Kind)
	assert.Equal(t, int64(0), loadArticle(t, db, 1).Status)

	res, err = engine.Update(ctx, 1, map[string]any{"name": "admin", "status": "0"})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "admin", loadArticle(t, db, 1).Name)

	res, err = engine.ChangeField(ctx, 1, "sort", "5")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = engine.ChangeField(ctx, 2, "status", "0")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(0), loadArticle(t, db, 2).Status)

	res, err = engine.ChangeField(ctx, 2, "name", "x")
	require.NoError(t, err)
	assert.Equal(t, KindForbidden, res.Kind)
	assert.Equal(t, MsgFieldForbidden, res.Message)
}

func TestEngine_Reorder(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "b", "c")
	engine := newTestEngine(t, db, articleDefinition(), nil)

	res := engine.Reorder(context.Background(), []string{"3", "1", "2"}, "")
	require.True(t, res.Success, res.Message)

	assert.Equal(t, int64(3), loadArticle(t, db, 3).Sort)
	assert.Equal(t, int64(2), loadArticle(t, db, 1).Sort)
	assert.Equal(t, int64(1), loadArticle(t, db, 2).Sort)
}

func TestEngine_ReorderRejectsUndeclaredField(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a")
	engine := newTestEngine(t, db, articleDefinition(), nil)

	for _, field := range []string{"name", "missing"} {
		res := engine.Reorder(context.Background(), []string{"1"}, field)
		assert.Equal(t, KindForbidden, res.Kind)
	}
}

func TestEngine_ReorderRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "b", "c")
	_, err := db.ExecContext(context.Background(),
		`CREATE TRIGGER articles_no_sort BEFORE UPDATE OF sort ON articles WHEN NEW.id = 2 BEGIN SELECT RAISE(ABORT, 'sort failure'); END;`)
	require.NoError(t, err)
	engine := newTestEngine(t, db, articleDefinition(), nil)

	res := engine.Reorder(context.Background(), []string{"3", "1", "2"}, "sort")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "sort failure")

	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, int64(0), loadArticle(t, db, id).Sort)
	}
}

func TestEngine_SelectOptions(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "Alice", "Bob", "alina")
	engine := newTestEngine(t, db, articleDefinition(), nil)
	ctx := context.Background()

	options, err := engine.SelectOptions(ctx, url.Values{"keyword": {"li"}})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "alina", options[0].Label)
	assert.EqualValues(t, 3, options[0].Value)

	_, err = engine.SelectOptions(ctx, url.Values{"label": {"secret_column"}})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestEngine_ExportNotImplementedByDefault(t *testing.T) {
	engine := newTestEngine(t, newTestDB(t), articleDefinition(), nil)

	download, res := engine.Export(context.Background(), url.Values{})
	assert.Nil(t, download)
	assert.False(t, res.Success)
	assert.Equal(t, KindNotImplemented, res.Kind)
	assert.Equal(t, MsgExportNotAllowed, res.Message)
}

func TestEngine_ExportCSV(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "Alice", "Bob")
	def := articleDefinition()
	def.Exporter = CSVExporter{Filename: "articles.csv", Columns: []string{"id", "name"}}
	engine := newTestEngine(t, db, def, nil)

	download, res := engine.Export(context.Background(), url.Values{"sort": {"id"}, "order": {"asc"}})
	require.True(t, res.Success)
	require.NotNil(t, download)
	assert.Equal(t, "articles.csv", download.Filename)
	assert.Equal(t, "id,name\n1,Alice\n2,Bob\n", string(download.Body))
}

func TestCSVExporter_EscapesFormulas(t *testing.T) {
	rows := []Record{
		&article{ID: 1, Name: "=1+2", Status: -1},
		&article{ID: 2, Name: "@SUM(A1)"},
		&article{ID: 3, Name: "+cmd"},
		&article{ID: 4, Name: "-3"},
		&article{ID: 5, Name: "a=b"},
	}

	download, err := CSVExporter{Filename: "a.csv", Columns: []string{"id", "name", "status"}}.Export(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, "id,name,status\n1,'=1+2,-1\n2,'@SUM(A1),0\n3,'+cmd,0\n4,'-3,0\n5,a=b,0\n", string(download.Body))
}
