package crud

// Record описывает доступ движка к записи
type Record interface {
	// PrimaryKey возвращает первичный ключ
	PrimaryKey() int64
	// Fillable возвращает поля, разрешенные для записи из запроса
	Fillable() []string
	// Get возвращает значение колонки
	Get(field string) (any, bool)
	// Set записывает значение колонки
	Set(field string, value any) error
}

// Model связывает тип модели bun с указателем, реализующим Record
type Model[T any] interface {
	*T
	Record
}

// Defaulter реализуется моделями, которым нужны значения по умолчанию
// перед заполнением новой записи
type Defaulter interface {
	ApplyDefaults()
}

// isFillable проверяет, разрешено ли поле для записи
func isFillable(r Record, field string) bool {
	for _, f := range r.Fillable() {
		if f == field {
			return true
		}
	}
	return false
}
