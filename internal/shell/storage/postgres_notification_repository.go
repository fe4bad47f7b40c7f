package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresNotificationRepository persists notification state in PostgreSQL
// for multi-instance deployments. Schema is managed with embedded
// golang-migrate migrations.
type PostgresNotificationRepository struct {
	db *sql.DB
}

var _ ports.NotificationRepository = (*PostgresNotificationRepository)(nil)

func NewPostgresNotificationRepository(connString string) (*PostgresNotificationRepository, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	repo := &PostgresNotificationRepository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Postgres notification repository initialized")
	return repo, nil
}

func (r *PostgresNotificationRepository) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(r.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) Save(n domain.Notification) error {
	_, err := r.db.Exec(`
INSERT INTO notifications
    (id, job_id, org_id, username, title, description, status, file_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    job_id = EXCLUDED.job_id,
    description = EXCLUDED.description,
    status = EXCLUDED.status,
    file_name = EXCLUDED.file_name,
    updated_at = EXCLUDED.updated_at`,
		n.ID, n.JobID, n.OrgID, n.Username, n.Title, n.Description, string(n.Status), n.FileName,
		n.CreatedAt.UTC(), n.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save notification %s: %w", n.ID, err)
	}
	return nil
}

func (r *PostgresNotificationRepository) FindByID(id string) (domain.Notification, error) {
	var n domain.Notification
	var status string

	err := r.db.QueryRow(`
SELECT id, job_id, org_id, username, title, description, status, file_name, created_at, updated_at
FROM notifications WHERE id = $1`, id).
		Scan(&n.ID, &n.JobID, &n.OrgID, &n.Username, &n.Title, &n.Description, &status, &n.FileName, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("failed to load notification %s: %w", id, err)
	}

	n.Status = domain.JobStatus(status)
	return n, nil
}

func (r *PostgresNotificationRepository) Close() error {
	return r.db.Close()
}
