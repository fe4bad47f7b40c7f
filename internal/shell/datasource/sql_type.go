package datasource

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

const (
	defaultPageSize = 500
	maxPageSize     = 5000
)

// SQLType is an exportable entity type backed by a SQL query. One instance
// is registered per exposed entity; the query and count query are fixed at
// registration, the page size may be tuned per request.
type SQLType struct {
	name       string
	permission string
	db         *sql.DB
	query      string
	countQuery string
	pageSize   int
}

var _ ports.ExportedType = (*SQLType)(nil)

func NewSQLType(name, permission string, db *sql.DB, query, countQuery string, pageSize int) *SQLType {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &SQLType{
		name:       name,
		permission: permission,
		db:         db,
		query:      query,
		countQuery: countQuery,
		pageSize:   pageSize,
	}
}

func (t *SQLType) Name() string               { return t.name }
func (t *SQLType) RequiredPermission() string { return t.permission }

// NewDataSource builds a paged source over the type's query. The request
// query may override the page size within bounds; everything else in it is
// ignored here and left to the authorization policy to inspect.
func (t *SQLType) NewDataSource(query json.RawMessage) (ports.DataSource, error) {
	pageSize := t.pageSize

	if len(query) > 0 {
		var params struct {
			PageSize int `json:"page_size"`
		}
		if err := json.Unmarshal(query, &params); err != nil {
			return nil, fmt.Errorf("%w for export type %s: %v", domain.ErrInvalidQuery, t.name, err)
		}
		if params.PageSize < 0 || params.PageSize > maxPageSize {
			return nil, fmt.Errorf("%w: page_size for export type %s must be between 0 and %d", domain.ErrInvalidQuery, t.name, maxPageSize)
		}
		if params.PageSize > 0 {
			pageSize = params.PageSize
		}
	}

	return NewSQLSource(t.db, t.query, t.countQuery, pageSize), nil
}
