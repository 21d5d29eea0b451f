package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

func sampleEvent() Event {
	return Event{
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		RequestID:     "req-1",
		Category:      CategoryRequest,
		Service:       ServiceGateway,
		Method:        "PUT",
		Path:          "/api/v1/devices/dev-1/resources/light/1",
		DeviceID:      "dev-1",
		CorrelationID: "corr-1",
		Status:        504,
		Duration:      1500 * time.Millisecond,
		Outcome:       model.OutcomeScheduled,
		Error:         "deadline exceeded",
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := sampleEvent()

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, event.Timestamp)
	}
	decoded.Timestamp = event.Timestamp
	if decoded != event {
		t.Errorf("decoded event mismatch:\n got %+v\nwant %+v", decoded, event)
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestServiceForPath(t *testing.T) {
	tests := map[string]Service{
		"/api/v1/devices":                               ServiceGateway,
		"/api/v1/devices/d/resource-links":              ServiceGateway,
		"/m2m-oauth-server/api/v1/tokens":               ServiceTokens,
		"/certificate-authority/api/v1/signing/records": ServiceCertificates,
		"/api/v1/enrollment-groups":                     ServiceProvisioning,
		"/api/v1/hubs/h1":                               ServiceProvisioning,
		"/api/v1/provisioning-records":                  ServiceProvisioning,
		"/api/v1/ws/events":                             ServiceEvents,
	}
	for path, want := range tests {
		if got := ServiceForPath(path); got != want {
			t.Errorf("ServiceForPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestEnumStrings(t *testing.T) {
	if CategoryNotification.String() != "NOTIFICATION" || Category(99).String() != "UNKNOWN" {
		t.Error("Category.String mismatch")
	}
	if ServiceProvisioning.String() != "PROVISIONING" || Service(99).String() != "UNKNOWN" {
		t.Error("Service.String mismatch")
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.hlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	first := sampleEvent()
	second := sampleEvent()
	second.RequestID = "req-2"
	second.Method = "GET"
	second.Outcome = model.OutcomeOK
	second.Error = ""

	logger.Log(first)
	logger.Log(second)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	logger.Log(sampleEvent())

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var ids []string
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		ids = append(ids, ev.RequestID)
	}
	if len(ids) != 2 || ids[0] != "req-1" || ids[1] != "req-2" {
		t.Errorf("read ids = %v", ids)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.hlog")

	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(sampleEvent())
		logger.Close()
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	count := 0
	for {
		if _, err := r.Next(); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("read %d events, want 2", count)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.hlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Log(sampleEvent())
			}
		}()
	}
	wg.Wait()
	logger.Close()

	if logger.Dropped() != 0 {
		t.Errorf("Dropped() = %d", logger.Dropped())
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	count := 0
	for {
		if _, err := r.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Next failed: %v", err)
			}
			break
		}
		count++
	}
	if count != 200 {
		t.Errorf("read %d events, want 200", count)
	}
}

func TestFilterMatches(t *testing.T) {
	event := sampleEvent()
	scheduled := model.OutcomeScheduled
	failed := model.OutcomeFailed
	req := CategoryRequest
	tokens := ServiceTokens
	before := event.Timestamp.Add(-time.Second)
	after := event.Timestamp.Add(time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"method case-insensitive", Filter{Method: "put"}, true},
		{"other method", Filter{Method: "GET"}, false},
		{"device", Filter{DeviceID: "dev-1"}, true},
		{"other device", Filter{DeviceID: "dev-2"}, false},
		{"path prefix", Filter{PathPrefix: "/api/v1/devices/dev-1/"}, true},
		{"outcome", Filter{Outcome: &scheduled}, true},
		{"other outcome", Filter{Outcome: &failed}, false},
		{"category", Filter{Category: &req}, true},
		{"other service", Filter{Service: &tokens}, false},
		{"time window", Filter{TimeStart: &before, TimeEnd: &after}, true},
		{"start after", Filter{TimeStart: &after}, false},
		{"end exclusive", Filter{TimeEnd: &event.Timestamp}, false},
		{"request id", Filter{RequestID: "req-9"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.hlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, dev := range []string{"dev-1", "dev-2", "dev-1"} {
		ev := sampleEvent()
		ev.DeviceID = dev
		logger.Log(ev)
	}
	logger.Close()

	r, err := NewFilteredReader(path, Filter{DeviceID: "dev-1"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer r.Close()

	count := 0
	for {
		ev, err := r.Next()
		if err != nil {
			break
		}
		if ev.DeviceID != "dev-1" {
			t.Errorf("unexpected device %q", ev.DeviceID)
		}
		count++
	}
	if count != 2 {
		t.Errorf("read %d events, want 2", count)
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.hlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestMultiLogger(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b, NoopLogger{})
	m.Log(sampleEvent())

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events a=%d b=%d, want 1 each", len(a.events), len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	c := &captureLogger{}
	if OrNoop(c) != Logger(c) {
		t.Error("OrNoop should return the given logger")
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(sampleEvent())

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	want := map[string]any{
		"msg":            "hub",
		"level":          "WARN",
		"request_id":     "req-1",
		"service":        "GATEWAY",
		"method":         "PUT",
		"device_id":      "dev-1",
		"correlation_id": "corr-1",
		"outcome":        "SCHEDULED",
		"error":          "deadline exceeded",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if entry["status"] != float64(504) {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestSlogAdapterDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	ev := sampleEvent()
	ev.Error = ""
	NewSlogAdapter(slog.New(handler)).Log(ev)

	if buf.Len() != 0 {
		t.Errorf("successful exchange logged above debug: %s", buf.String())
	}
}
