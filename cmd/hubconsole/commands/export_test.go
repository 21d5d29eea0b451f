package commands

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// createTestLogFile writes events to a temporary log file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.hlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp: ts,
			RequestID: "abc12345-0000-0000-0000-000000000001",
			Category:  log.CategoryRequest,
			Service:   log.ServiceGateway,
			Method:    "GET",
			Path:      "/api/v1/devices/dev-1/resource-links",
			DeviceID:  "dev-1",
			Status:    200,
			Duration:  12500 * time.Microsecond,
			Outcome:   model.OutcomeOK,
		},
		{
			Timestamp:     ts.Add(time.Second),
			RequestID:     "abc12345-0000-0000-0000-000000000002",
			Category:      log.CategoryRequest,
			Service:       log.ServiceGateway,
			Method:        "PUT",
			Path:          "/api/v1/devices/dev-1/resources/light/1",
			DeviceID:      "dev-1",
			CorrelationID: "corr-1",
			Status:        504,
			Duration:      2 * time.Second,
			Outcome:       model.OutcomeScheduled,
			Error:         "deadline exceeded",
		},
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["category"] != "REQUEST" {
		t.Errorf("expected category REQUEST, got %v", first["category"])
	}
	if first["outcome"] != "OK" {
		t.Errorf("expected outcome OK, got %v", first["outcome"])
	}
	if first["durationMs"] != 12.5 {
		t.Errorf("expected durationMs 12.5, got %v", first["durationMs"])
	}
	if first["timestamp"] != "2026-01-28T10:15:32.123456Z" {
		t.Errorf("unexpected timestamp %v", first["timestamp"])
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if second["outcome"] != "SCHEDULED" || second["correlationId"] != "corr-1" {
		t.Errorf("unexpected second event: %v", second)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("unexpected header: %v", records[0])
	}

	row := records[2]
	if row[4] != "PUT" || row[6] != "dev-1" || row[8] != "504" {
		t.Errorf("unexpected row: %v", row)
	}
	if row[9] != "2000.000" {
		t.Errorf("expected duration 2000.000, got %s", row[9])
	}
	if row[10] != "SCHEDULED" || row[11] != "deadline exceeded" {
		t.Errorf("unexpected outcome columns: %v", row[10:])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestExportMissingFile(t *testing.T) {
	if err := RunExport(filepath.Join(t.TempDir(), "missing.hlog"), "jsonl", ""); err == nil {
		t.Error("expected error for missing log file")
	}
}
