package ports

import (
	"io"

	"export-service/internal/core/domain"
)

// RecordWriter serializes records into one output file. Flush must be called
// exactly once after the last record to finalize the payload.
type RecordWriter interface {
	WriteRecord(record domain.Record) error
	Flush() error
}

// ExportProvider is a pluggable output format. Providers report their
// identity and capabilities when probed and produce a fresh writer per job.
type ExportProvider interface {
	Name() string
	ContentType() string
	FileExtension() string
	NewWriter(w io.Writer) (RecordWriter, error)
}
