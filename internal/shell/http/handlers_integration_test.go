package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
	"export-service/internal/core/usecases"
	appidentity "export-service/internal/identity"
	"export-service/internal/providers"
	"export-service/internal/shell/datasource"
	"export-service/internal/shell/executor"
	"export-service/internal/shell/notification"
	"export-service/internal/shell/storage"
)

// productSource pages through a fixed product catalog.
type productSource struct {
	total    int
	pageSize int
	offset   int
}

func (s *productSource) FetchPage(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.offset >= s.total {
		return nil, nil
	}
	end := s.offset + s.pageSize
	if end > s.total {
		end = s.total
	}
	page := make([]domain.Record, 0, end-s.offset)
	for i := s.offset; i < end; i++ {
		page = append(page, domain.Record{
			"id":   i + 1,
			"name": fmt.Sprintf("product-%d", i+1),
		})
	}
	s.offset = end
	return page, nil
}

func (s *productSource) TotalCount() int64 { return int64(s.total) }

type productType struct {
	total    int
	pageSize int
}

func (t productType) Name() string               { return "Catalog.Product" }
func (t productType) RequiredPermission() string { return appidentity.PermissionExportAccess }
func (t productType) NewDataSource(query json.RawMessage) (ports.DataSource, error) {
	return &productSource{total: t.total, pageSize: t.pageSize}, nil
}

// newOrderType backs an export type with a real SQL source so requests run
// through the same query validation the server wires in.
func newOrderType(t *testing.T) *datasource.SQLType {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL NOT NULL)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO orders (id, total) VALUES (1, 9.5), (2, 20.0), (3, 7.25)`); err != nil {
		t.Fatalf("failed to seed orders: %v", err)
	}

	return datasource.NewSQLType("Customer.Order", appidentity.PermissionExportAccess, db,
		"SELECT id, total FROM orders ORDER BY id",
		"SELECT COUNT(*) FROM orders", 25)
}

type exportStack struct {
	router     *mux.Router
	repository *storage.MemoryNotificationRepository
	store      *storage.DiskStore
	queue      *executor.InMemoryJobQueue
}

func newExportStack(t *testing.T) *exportStack {
	t.Helper()

	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() unexpected error: %v", err)
	}

	repository := storage.NewMemoryNotificationRepository()
	channel := notification.NewStoreChannel(repository)

	queue := executor.NewInMemoryJobQueue()
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx, 2)
	t.Cleanup(func() {
		cancel()
		queue.Wait()
	})

	jobExecutor := executor.NewExportJobExecutor(store, channel)

	registry := usecases.NewTypeRegistry()
	permissions := defaultPermissions()
	registry.Register(productType{total: 250, pageSize: 50},
		appidentity.RequirePermission(permissions, appidentity.PermissionExportAccess))
	registry.Register(newOrderType(t),
		appidentity.RequirePermission(permissions, appidentity.PermissionExportAccess))

	service := usecases.NewExportService(registry, queue, channel, jobExecutor)
	service.RegisterProvider(providers.CSVProvider{})
	service.RegisterProvider(providers.JSONProvider{})

	handler := NewExportHandler(service, store, repository, permissions)
	return &exportStack{
		router:     setupTestRouter(handler),
		repository: repository,
		store:      store,
		queue:      queue,
	}
}

func (s *exportStack) do(t *testing.T, method, path, username string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = withIdentity(req, username)

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *exportStack) waitForStatus(t *testing.T, id string, status domain.JobStatus) domain.Notification {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, err := s.repository.FindByID(id)
		if err == nil && n.Status == status {
			return n
		}
		if err == nil && n.Status.IsTerminal() && n.Status != status {
			t.Fatalf("notification %s reached terminal status %s, want %s", id, n.Status, status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("notification %s never reached status %s", id, status)
	return domain.Notification{}
}

func TestExportEndToEnd(t *testing.T) {
	stack := newExportStack(t)

	// Preview: one page plus the full count, no job created.
	rr := stack.do(t, "POST", "/api/export/v1/data", "testuser", []byte(`{"type": "Catalog.Product"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var preview PreviewResponse
	if err := json.NewDecoder(rr.Body).Decode(&preview); err != nil {
		t.Fatalf("failed to decode preview: %v", err)
	}
	if preview.TotalCount != 250 {
		t.Errorf("TotalCount = %d, want 250", preview.TotalCount)
	}
	if len(preview.Results) != 50 {
		t.Errorf("preview page has %d records, want 50", len(preview.Results))
	}

	// Run the export.
	rr = stack.do(t, "POST", "/api/export/v1/run", "testuser", []byte(`{"type": "Catalog.Product", "provider": "csv"}`))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("run status = %d, want %d: %s", rr.Code, http.StatusAccepted, rr.Body.String())
	}
	var started NotificationResponse
	if err := json.NewDecoder(rr.Body).Decode(&started); err != nil {
		t.Fatalf("failed to decode run response: %v", err)
	}
	if started.Title != "Product export" {
		t.Errorf("Title = %q, want %q", started.Title, "Product export")
	}
	if started.JobID == "" {
		t.Fatal("run response carries no job id")
	}

	// Wait for completion, then check the stable notification id held.
	completed := stack.waitForStatus(t, started.ID, domain.StatusCompleted)
	if completed.FileName != started.JobID+".csv" {
		t.Errorf("FileName = %q, want %q", completed.FileName, started.JobID+".csv")
	}

	// The notification endpoint serves the terminal state.
	rr = stack.do(t, "GET", "/api/export/v1/notifications/"+started.ID, "testuser", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("notification status = %d, want %d", rr.Code, http.StatusOK)
	}

	// Download with the module download permission.
	rr = stack.do(t, "GET", "/api/export/v1/download/"+completed.FileName, "downloader", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("download status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/csv")
	}
	if rr.Body.Len() == 0 {
		t.Error("downloaded file is empty")
	}

	// Base permission alone cannot download.
	rr = stack.do(t, "GET", "/api/export/v1/download/"+completed.FileName, "testuser", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("download without permission status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	// Cancelling the finished job is a no-op, not an error.
	rr = stack.do(t, "POST", "/api/export/v1/task/cancel", "testuser",
		[]byte(`{"job_id": "`+started.JobID+`"}`))
	if rr.Code != http.StatusOK {
		t.Errorf("cancel of finished job status = %d, want %d", rr.Code, http.StatusOK)
	}

	// The completed state survives the cancel attempt.
	final, err := stack.repository.FindByID(started.ID)
	if err != nil {
		t.Fatalf("FindByID() unexpected error: %v", err)
	}
	if final.Status != domain.StatusCompleted {
		t.Errorf("status after late cancel = %q, want %q", final.Status, domain.StatusCompleted)
	}
}

func TestExportRunUnknownProvider(t *testing.T) {
	stack := newExportStack(t)

	rr := stack.do(t, "POST", "/api/export/v1/run", "testuser", []byte(`{"type": "Catalog.Product", "provider": "pdf"}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportPreviewInvalidPageSize(t *testing.T) {
	stack := newExportStack(t)

	for _, query := range []string{`{"page_size": 99999}`, `{"page_size": -1}`} {
		rr := stack.do(t, "POST", "/api/export/v1/data", "testuser",
			[]byte(`{"type": "Customer.Order", "query": `+query+`}`))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("preview with query %s status = %d, want %d: %s", query, rr.Code, http.StatusBadRequest, rr.Body.String())
		}
	}

	// A bounded override still works.
	rr := stack.do(t, "POST", "/api/export/v1/data", "testuser",
		[]byte(`{"type": "Customer.Order", "query": {"page_size": 2}}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var preview PreviewResponse
	if err := json.NewDecoder(rr.Body).Decode(&preview); err != nil {
		t.Fatalf("failed to decode preview: %v", err)
	}
	if len(preview.Results) != 2 || preview.TotalCount != 3 {
		t.Errorf("preview = %d results of %d total, want 2 of 3", len(preview.Results), preview.TotalCount)
	}
}

func TestExportRunInvalidPageSize(t *testing.T) {
	stack := newExportStack(t)

	rr := stack.do(t, "POST", "/api/export/v1/run", "testuser",
		[]byte(`{"type": "Customer.Order", "provider": "csv", "query": {"page_size": 99999}}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestExportRunUnknownType(t *testing.T) {
	stack := newExportStack(t)

	rr := stack.do(t, "POST", "/api/export/v1/run", "testuser", []byte(`{"type": "Nope", "provider": "csv"}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
