// Package providers holds the built-in export output formats.
package providers

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// CSVProvider writes exports as RFC 4180 CSV. The header row is derived from
// the first record's keys, sorted; later records are projected onto those
// columns.
type CSVProvider struct{}

var _ ports.ExportProvider = CSVProvider{}

func (CSVProvider) Name() string          { return "csv" }
func (CSVProvider) ContentType() string   { return "text/csv" }
func (CSVProvider) FileExtension() string { return ".csv" }

func (CSVProvider) NewWriter(w io.Writer) (ports.RecordWriter, error) {
	return &csvRecordWriter{writer: csv.NewWriter(w)}, nil
}

type csvRecordWriter struct {
	writer  *csv.Writer
	columns []string
}

func (w *csvRecordWriter) WriteRecord(record domain.Record) error {
	if w.columns == nil {
		w.columns = make([]string, 0, len(record))
		for column := range record {
			w.columns = append(w.columns, column)
		}
		sort.Strings(w.columns)
		if err := w.writer.Write(w.columns); err != nil {
			return err
		}
	}

	row := make([]string, len(w.columns))
	for i, column := range w.columns {
		value, exists := record[column]
		if !exists || value == nil {
			continue
		}
		row[i] = fmt.Sprintf("%v", value)
	}
	return w.writer.Write(row)
}

func (w *csvRecordWriter) Flush() error {
	w.writer.Flush()
	return w.writer.Error()
}
