package crud

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// Download файл для выдачи клиенту
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter формирует файл экспорта из выбранных записей
type Exporter interface {
	Export(ctx context.Context, rows []Record) (*Download, error)
}

// CSVExporter выгружает записи в CSV с заголовком из имен колонок
type CSVExporter struct {
	Filename string
	Columns  []string
}

// Export реализует Exporter
func (e CSVExporter) Export(_ context.Context, rows []Record) (*Download, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(e.Columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	line := make([]string, len(e.Columns))
	for _, row := range rows {
		for i, col := range e.Columns {
			value, _ := row.Get(col)
			line[i] = formatCell(value)
		}
		if err := w.Write(line); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return &Download{
		Filename:    e.Filename,
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return escapeFormula(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02 15:04:05")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}

// escapeFormula экранирует текст, который табличный редактор примет за формулу
func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
