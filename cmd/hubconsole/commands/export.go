package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hubconsole/hubconsole-go/pkg/log"
)

// jsonEvent is the JSONL export shape. Enums are written by name.
type jsonEvent struct {
	Timestamp     string  `json:"timestamp"`
	RequestID     string  `json:"requestId"`
	Category      string  `json:"category"`
	Service       string  `json:"service"`
	Method        string  `json:"method,omitempty"`
	Path          string  `json:"path,omitempty"`
	DeviceID      string  `json:"deviceId,omitempty"`
	CorrelationID string  `json:"correlationId,omitempty"`
	Status        int     `json:"status,omitempty"`
	DurationMS    float64 `json:"durationMs,omitempty"`
	Outcome       string  `json:"outcome"`
	Error         string  `json:"error,omitempty"`
	Detail        string  `json:"detail,omitempty"`
}

func toJSONEvent(e log.Event) jsonEvent {
	return jsonEvent{
		Timestamp:     e.Timestamp.UTC().Format(timestampLayout),
		RequestID:     e.RequestID,
		Category:      e.Category.String(),
		Service:       e.Service.String(),
		Method:        e.Method,
		Path:          e.Path,
		DeviceID:      e.DeviceID,
		CorrelationID: e.CorrelationID,
		Status:        e.Status,
		DurationMS:    durationMS(e),
		Outcome:       e.Outcome.String(),
		Error:         e.Error,
		Detail:        e.Detail,
	}
}

func durationMS(e log.Event) float64 {
	return float64(e.Duration.Microseconds()) / 1000
}

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "request_id", "category", "service", "method", "path",
	"device_id", "correlation_id", "status", "duration_ms", "outcome", "error",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		status := ""
		if event.Status != 0 {
			status = strconv.Itoa(event.Status)
		}
		row := []string{
			event.Timestamp.UTC().Format(timestampLayout),
			event.RequestID,
			event.Category.String(),
			event.Service.String(),
			event.Method,
			event.Path,
			event.DeviceID,
			event.CorrelationID,
			status,
			strconv.FormatFloat(durationMS(event), 'f', 3, 64),
			event.Outcome.String(),
			event.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
