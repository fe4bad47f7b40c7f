package providers

import (
	"encoding/json"
	"io"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// JSONProvider writes exports as a single JSON array, streamed one record at
// a time so large exports are never buffered fully in memory.
type JSONProvider struct{}

var _ ports.ExportProvider = JSONProvider{}

func (JSONProvider) Name() string          { return "json" }
func (JSONProvider) ContentType() string   { return "application/json" }
func (JSONProvider) FileExtension() string { return ".json" }

func (JSONProvider) NewWriter(w io.Writer) (ports.RecordWriter, error) {
	return &jsonRecordWriter{writer: w}, nil
}

type jsonRecordWriter struct {
	writer  io.Writer
	started bool
}

func (w *jsonRecordWriter) WriteRecord(record domain.Record) error {
	prefix := ",\n  "
	if !w.started {
		prefix = "[\n  "
		w.started = true
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w.writer, prefix); err != nil {
		return err
	}
	_, err = w.writer.Write(encoded)
	return err
}

func (w *jsonRecordWriter) Flush() error {
	if !w.started {
		_, err := io.WriteString(w.writer, "[]\n")
		return err
	}
	_, err := io.WriteString(w.writer, "\n]\n")
	return err
}
