package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "12345", "jdoe", "u-1")
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	return client
}

func TestClientSendsIdentityHeader(t *testing.T) {
	var gotIdentity string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = r.Header.Get("x-rh-identity")
		json.NewEncoder(w).Encode([]ExportType{})
	})

	if _, err := client.KnownTypes(context.Background()); err != nil {
		t.Fatalf("KnownTypes() unexpected error: %v", err)
	}
	if gotIdentity == "" {
		t.Error("request carried no x-rh-identity header")
	}
}

func TestClientKnownTypes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/export/v1/knowntypes" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/export/v1/knowntypes")
		}
		json.NewEncoder(w).Encode([]ExportType{
			{Name: "Catalog.Product", RequiredPermission: "export:access"},
		})
	})

	types, err := client.KnownTypes(context.Background())
	if err != nil {
		t.Fatalf("KnownTypes() unexpected error: %v", err)
	}
	if len(types) != 1 || types[0].Name != "Catalog.Product" {
		t.Errorf("unexpected types: %+v", types)
	}
}

func TestClientRun(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/export/v1/run" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Type != "Catalog.Product" || req.Provider != "csv" {
			t.Errorf("unexpected run request: %+v", req)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(Notification{
			ID:     "n-1",
			JobID:  "job-1",
			Title:  "Product export",
			Status: "queued",
		})
	})

	notification, err := client.Run(context.Background(), RunRequest{Type: "Catalog.Product", Provider: "csv"})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if notification.JobID != "job-1" {
		t.Errorf("JobID = %q, want %q", notification.JobID, "job-1")
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{
			Errors: []APIError{{Status: "401", Title: "Unauthorized", Detail: "Access to the requested export is not allowed"}},
		})
	})

	_, err := client.PreviewData(context.Background(), PreviewRequest{Type: "Catalog.Product"})
	if err == nil {
		t.Fatal("PreviewData() = nil, want API error")
	}
}

func TestClientDownload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/export/v1/download/job-1.csv" {
			t.Errorf("path = %q, want download path", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("id,name\n1,widget\n"))
	})

	data, contentType, err := client.Download(context.Background(), "job-1.csv")
	if err != nil {
		t.Fatalf("Download() unexpected error: %v", err)
	}
	if contentType != "text/csv" {
		t.Errorf("content type = %q, want %q", contentType, "text/csv")
	}
	if string(data) != "id,name\n1,widget\n" {
		t.Errorf("unexpected download payload: %q", data)
	}
}

func TestClientCancelTask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CancelResponse{JobID: "job-1", Status: "cancellation_requested"})
	})

	response, err := client.CancelTask(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("CancelTask() unexpected error: %v", err)
	}
	if response.JobID != "job-1" {
		t.Errorf("JobID = %q, want %q", response.JobID, "job-1")
	}
}
