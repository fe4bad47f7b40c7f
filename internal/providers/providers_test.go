package providers

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"export-service/internal/core/domain"
)

func TestCSVProviderWritesSortedHeader(t *testing.T) {
	var buf bytes.Buffer
	writer, err := CSVProvider{}.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter() unexpected error: %v", err)
	}

	records := []domain.Record{
		{"name": "widget", "id": 1, "price": 9.99},
		{"name": "gadget", "id": 2, "price": nil},
	}
	for _, record := range records {
		if err := writer.WriteRecord(record); err != nil {
			t.Fatalf("WriteRecord() unexpected error: %v", err)
		}
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush() unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows):\n%s", len(lines), buf.String())
	}
	if lines[0] != "id,name,price" {
		t.Errorf("header = %q, want sorted %q", lines[0], "id,name,price")
	}
	if lines[1] != "1,widget,9.99" {
		t.Errorf("row 1 = %q, want %q", lines[1], "1,widget,9.99")
	}
	if lines[2] != "2,gadget," {
		t.Errorf("row 2 = %q, want nil rendered empty: %q", lines[2], "2,gadget,")
	}
}

func TestJSONProviderStreamsArray(t *testing.T) {
	var buf bytes.Buffer
	writer, err := JSONProvider{}.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter() unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := writer.WriteRecord(domain.Record{"id": i}); err != nil {
			t.Fatalf("WriteRecord() unexpected error: %v", err)
		}
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush() unexpected error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a valid JSON array: %v\n%s", err, buf.String())
	}
	if len(decoded) != 3 {
		t.Errorf("decoded %d records, want 3", len(decoded))
	}
}

func TestJSONProviderEmptyExport(t *testing.T) {
	var buf bytes.Buffer
	writer, _ := JSONProvider{}.NewWriter(&buf)
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush() unexpected error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("empty export is not a valid JSON array: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("decoded %d records, want 0", len(decoded))
	}
}

func TestProviderIdentities(t *testing.T) {
	tests := []struct {
		name        string
		gotName     string
		contentType string
		extension   string
	}{
		{"csv", CSVProvider{}.Name(), CSVProvider{}.ContentType(), CSVProvider{}.FileExtension()},
		{"json", JSONProvider{}.Name(), JSONProvider{}.ContentType(), JSONProvider{}.FileExtension()},
	}

	want := map[string][2]string{
		"csv":  {"text/csv", ".csv"},
		"json": {"application/json", ".json"},
	}

	for _, tt := range tests {
		if tt.gotName != tt.name {
			t.Errorf("Name() = %q, want %q", tt.gotName, tt.name)
		}
		if tt.contentType != want[tt.name][0] {
			t.Errorf("%s ContentType() = %q, want %q", tt.name, tt.contentType, want[tt.name][0])
		}
		if tt.extension != want[tt.name][1] {
			t.Errorf("%s FileExtension() = %q, want %q", tt.name, tt.extension, want[tt.name][1])
		}
	}
}
