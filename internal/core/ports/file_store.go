package ports

import (
	"io"
	"time"
)

// FileWriter stages the bytes of one export output. Nothing is visible to
// readers until Commit publishes the file under its final name; Abort
// discards everything written so far.
type FileWriter interface {
	io.Writer
	Commit() error
	Abort() error
}

// StoredFile is a published export file opened for streaming reads.
type StoredFile struct {
	io.ReadSeekCloser
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// FileStore is a durable blob store keyed by file name: write-once during
// export, read-many on download. Implementations must validate names (reject
// path separators and "..") before any operation, tolerate concurrent reads
// of published files, and support concurrent publishes of distinct names.
type FileStore interface {
	// Create opens a staged writer for name. The file becomes visible to
	// Open only after Commit.
	Create(name string) (FileWriter, error)

	// Open returns the published file for streaming, or
	// domain.ErrFileNotFound when absent. Content type is inferred from
	// the file name extension.
	Open(name string) (*StoredFile, error)
}
