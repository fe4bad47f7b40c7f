package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// SQLSource pages through the rows of a single query. The total count is
// taken once, before the first page, and held for the rest of the export.
type SQLSource struct {
	db         *sql.DB
	query      string
	countQuery string
	pageSize   int
	offset     int
	total      int64
	counted    bool
}

var _ ports.DataSource = (*SQLSource)(nil)

func NewSQLSource(db *sql.DB, query, countQuery string, pageSize int) *SQLSource {
	return &SQLSource{
		db:         db,
		query:      query,
		countQuery: countQuery,
		pageSize:   pageSize,
	}
}

func (s *SQLSource) FetchPage(ctx context.Context) ([]domain.Record, error) {
	if !s.counted {
		if err := s.db.QueryRowContext(ctx, s.countQuery).Scan(&s.total); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
		s.counted = true
	}

	// Paging is appended as literal integers so the same query text works
	// across drivers with different placeholder syntax.
	paged := fmt.Sprintf("%s LIMIT %d OFFSET %d", s.query, s.pageSize, s.offset)
	rows, err := s.db.QueryContext(ctx, paged)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page at offset %d: %w", s.offset, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	page := make([]domain.Record, 0, s.pageSize)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(domain.Record, len(columns))
		for i, column := range columns {
			record[column] = normalize(values[i])
		}
		page = append(page, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	s.offset += len(page)
	return page, nil
}

func (s *SQLSource) TotalCount() int64 {
	return s.total
}

// normalize turns driver byte slices into strings so records serialize as
// text instead of base64.
func normalize(value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
