package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// SQLiteNotificationRepository persists notification state in a local SQLite
// database. Each notification id holds exactly one row, overwritten on every
// status transition.
type SQLiteNotificationRepository struct {
	db *sql.DB
}

var _ ports.NotificationRepository = (*SQLiteNotificationRepository)(nil)

func NewSQLiteNotificationRepository(path string) (*SQLiteNotificationRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database %s: %w", path, err)
	}

	repo := &SQLiteNotificationRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("SQLite notification repository initialized at %s", path)
	return repo, nil
}

func (r *SQLiteNotificationRepository) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    job_id TEXT NOT NULL DEFAULT '',
    org_id TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    file_name TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_job_id ON notifications(job_id);
CREATE INDEX IF NOT EXISTS idx_notifications_username ON notifications(username);
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize notification schema: %w", err)
	}
	return nil
}

func (r *SQLiteNotificationRepository) Save(n domain.Notification) error {
	_, err := r.db.Exec(`
INSERT OR REPLACE INTO notifications
    (id, job_id, org_id, username, title, description, status, file_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.JobID, n.OrgID, n.Username, n.Title, n.Description, string(n.Status), n.FileName,
		n.CreatedAt.UTC().Format(time.RFC3339Nano), n.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save notification %s: %w", n.ID, err)
	}
	return nil
}

func (r *SQLiteNotificationRepository) FindByID(id string) (domain.Notification, error) {
	row := r.db.QueryRow(`
SELECT id, job_id, org_id, username, title, description, status, file_name, created_at, updated_at
FROM notifications WHERE id = ?`, id)

	return scanNotification(row)
}

func (r *SQLiteNotificationRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (domain.Notification, error) {
	var n domain.Notification
	var status, createdAt, updatedAt string

	err := row.Scan(&n.ID, &n.JobID, &n.OrgID, &n.Username, &n.Title, &n.Description, &status, &n.FileName, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.Status = domain.JobStatus(status)
	if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Notification{}, fmt.Errorf("invalid created_at for notification %s: %w", n.ID, err)
	}
	if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.Notification{}, fmt.Errorf("invalid updated_at for notification %s: %w", n.ID, err)
	}
	return n, nil
}
