package datasource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"export-service/internal/core/domain"
)

func newProductDB(t *testing.T, rows int) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price REAL NOT NULL)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	for i := 1; i <= rows; i++ {
		if _, err := db.Exec(`INSERT INTO products (id, name, price) VALUES (?, ?, ?)`,
			i, fmt.Sprintf("product-%d", i), float64(i)*1.5); err != nil {
			t.Fatalf("failed to seed row %d: %v", i, err)
		}
	}
	return db
}

const (
	productQuery      = "SELECT id, name, price FROM products ORDER BY id"
	productCountQuery = "SELECT COUNT(*) FROM products"
)

func TestSQLSourcePagesThroughAllRows(t *testing.T) {
	db := newProductDB(t, 250)
	source := NewSQLSource(db, productQuery, productCountQuery, 50)

	ctx := context.Background()
	seen := 0
	pages := 0
	for {
		page, err := source.FetchPage(ctx)
		if err != nil {
			t.Fatalf("FetchPage() unexpected error: %v", err)
		}
		if len(page) == 0 {
			break
		}
		pages++
		seen += len(page)
		if len(page) > 50 {
			t.Fatalf("page %d has %d records, want at most 50", pages, len(page))
		}
	}

	if seen != 250 {
		t.Errorf("drained %d records, want 250", seen)
	}
	if pages != 5 {
		t.Errorf("drained in %d pages, want 5", pages)
	}
	if source.TotalCount() != 250 {
		t.Errorf("TotalCount() = %d, want 250", source.TotalCount())
	}
}

func TestSQLSourceRecordsCarryColumnValues(t *testing.T) {
	db := newProductDB(t, 3)
	source := NewSQLSource(db, productQuery, productCountQuery, 10)

	page, err := source.FetchPage(context.Background())
	if err != nil {
		t.Fatalf("FetchPage() unexpected error: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("page has %d records, want 3", len(page))
	}

	first := page[0]
	if first["name"] != "product-1" {
		t.Errorf("name = %v, want %q", first["name"], "product-1")
	}
	if _, ok := first["id"]; !ok {
		t.Error("record is missing the id column")
	}
	if _, ok := first["price"]; !ok {
		t.Error("record is missing the price column")
	}
}

func TestSQLSourceEmptyTable(t *testing.T) {
	db := newProductDB(t, 0)
	source := NewSQLSource(db, productQuery, productCountQuery, 50)

	page, err := source.FetchPage(context.Background())
	if err != nil {
		t.Fatalf("FetchPage() unexpected error: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("page has %d records, want 0", len(page))
	}
	if source.TotalCount() != 0 {
		t.Errorf("TotalCount() = %d, want 0", source.TotalCount())
	}
}

func TestSQLSourceCancelledContext(t *testing.T) {
	db := newProductDB(t, 10)
	source := NewSQLSource(db, productQuery, productCountQuery, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := source.FetchPage(ctx); err == nil {
		t.Error("FetchPage() with cancelled context = nil, want error")
	}
}

func TestSQLTypePageSizeOverride(t *testing.T) {
	db := newProductDB(t, 30)
	exportedType := NewSQLType("Catalog.Product", "export:access", db, productQuery, productCountQuery, 10)

	tests := []struct {
		name     string
		query    json.RawMessage
		wantErr  bool
		wantSize int
	}{
		{"No query keeps default", nil, false, 10},
		{"Empty object keeps default", json.RawMessage(`{}`), false, 10},
		{"Override within bounds", json.RawMessage(`{"page_size": 7}`), false, 7},
		{"Malformed JSON", json.RawMessage(`{"page_size"`), true, 0},
		{"Negative page size", json.RawMessage(`{"page_size": -1}`), true, 0},
		{"Oversized page size", json.RawMessage(`{"page_size": 100000}`), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := exportedType.NewDataSource(tt.query)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidQuery) {
					t.Fatalf("NewDataSource() error = %v, want ErrInvalidQuery", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDataSource() unexpected error: %v", err)
			}

			page, err := source.FetchPage(context.Background())
			if err != nil {
				t.Fatalf("FetchPage() unexpected error: %v", err)
			}
			if len(page) != tt.wantSize {
				t.Errorf("first page has %d records, want %d", len(page), tt.wantSize)
			}
		})
	}
}
