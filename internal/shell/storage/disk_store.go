package storage

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// Staged output lives under root/<stagingDir> until Commit renames it into
// the root; Open never looks inside the staging directory, so a half-written
// file can never be downloaded.
const stagingDir = "staging"

var contentTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
	".xml":  "application/xml",
}

// DiskStore is a local-filesystem FileStore rooted at a single directory.
// File names are flat, opaque identifiers; anything that could escape the
// root is rejected before touching the filesystem.
type DiskStore struct {
	root string
}

var _ ports.FileStore = (*DiskStore)(nil)

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to initialize export storage at %s: %w", root, err)
	}
	log.Printf("Disk file store initialized at %s", root)
	return &DiskStore{root: root}, nil
}

// validateFileName rejects names that are empty, reserved, or that could
// traverse outside the storage root.
func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." || name == stagingDir {
		return domain.ErrInvalidFileName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return domain.ErrInvalidFileName
	}
	return nil
}

func (s *DiskStore) Create(name string) (ports.FileWriter, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}

	stagedPath := filepath.Join(s.root, stagingDir, name)
	file, err := os.OpenFile(stagedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to stage export file %s: %w", name, err)
	}

	return &diskFileWriter{
		file:       file,
		stagedPath: stagedPath,
		finalPath:  filepath.Join(s.root, name),
	}, nil
}

func (s *DiskStore) Open(name string) (*ports.StoredFile, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open export file %s: %w", name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat export file %s: %w", name, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, domain.ErrFileNotFound
	}

	return &ports.StoredFile{
		ReadSeekCloser: file,
		Name:           name,
		ContentType:    ContentTypeFor(name),
		Size:           info.Size(),
		ModTime:        info.ModTime(),
	}, nil
}

// RemoveOlderThan deletes published and stale staged files last modified
// before cutoff. Returns the number of files removed.
func (s *DiskStore) RemoveOlderThan(cutoff time.Time) (int, error) {
	removed := 0
	for _, dir := range []string{s.root, filepath.Join(s.root, stagingDir)} {
		items, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		for _, item := range items {
			if item.IsDir() {
				continue
			}
			info, err := item.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, item.Name())); err != nil {
					log.Printf("Failed to remove expired export file %s: %v", item.Name(), err)
					continue
				}
				removed++
			}
		}
	}
	return removed, nil
}

// ContentTypeFor infers a content type from the file name extension.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if contentType, ok := contentTypes[ext]; ok {
		return contentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

type diskFileWriter struct {
	file       *os.File
	stagedPath string
	finalPath  string
	closed     bool
}

func (w *diskFileWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Commit makes the staged file visible under its final name. The rename is
// atomic on the same filesystem, so readers see either nothing or the whole
// file.
func (w *diskFileWriter) Commit() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		os.Remove(w.stagedPath)
		return fmt.Errorf("failed to sync export file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.stagedPath)
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(w.stagedPath, w.finalPath); err != nil {
		os.Remove(w.stagedPath)
		return fmt.Errorf("failed to publish export file: %w", err)
	}
	return nil
}

func (w *diskFileWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.file.Close()
	if err := os.Remove(w.stagedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to discard staged export file: %w", err)
	}
	return nil
}
