// Package commands implements the hubconsole log subcommands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/model"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [req:id] CATEGORY SERVICE summary
	ts := event.Timestamp.UTC().Format(timestampLayout)
	reqID := shortenID(event.RequestID)

	var summary string
	switch event.Category {
	case log.CategoryRequest:
		summary = fmt.Sprintf("%s %s", event.Method, event.Path)
	case log.CategoryNotification, log.CategoryState:
		summary = event.Detail
	case log.CategoryError:
		summary = "Error"
	}

	fmt.Fprintf(w, "%s [req:%s] %s %s %s\n", ts, reqID, event.Category, event.Service, summary)

	if event.DeviceID != "" {
		fmt.Fprintf(w, "  Device: %s\n", event.DeviceID)
	}
	if event.CorrelationID != "" {
		fmt.Fprintf(w, "  Correlation: %s\n", event.CorrelationID)
	}
	if event.Category == log.CategoryRequest {
		if event.Status != 0 {
			fmt.Fprintf(w, "  Status: %d\n", event.Status)
		}
		fmt.Fprintf(w, "  Outcome: %s\n", event.Outcome)
		if event.Duration > 0 {
			fmt.Fprintf(w, "  Duration: %s\n", formatDuration(event.Duration))
		}
	}
	if event.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of a request ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "request":
		return log.CategoryRequest, nil
	case "notification":
		return log.CategoryNotification, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be request, notification, state, or error)", s)
	}
}

// ParseServiceFlag parses a hub service name (case-insensitive).
func ParseServiceFlag(s string) (log.Service, error) {
	switch strings.ToLower(s) {
	case "gateway":
		return log.ServiceGateway, nil
	case "tokens":
		return log.ServiceTokens, nil
	case "certificates":
		return log.ServiceCertificates, nil
	case "provisioning":
		return log.ServiceProvisioning, nil
	case "events":
		return log.ServiceEvents, nil
	default:
		return 0, fmt.Errorf("invalid service: %s (must be gateway, tokens, certificates, provisioning, or events)", s)
	}
}

// ParseOutcomeFlag parses an outcome name (case-insensitive).
func ParseOutcomeFlag(s string) (model.Outcome, error) {
	switch strings.ToLower(s) {
	case "ok":
		return model.OutcomeOK, nil
	case "scheduled":
		return model.OutcomeScheduled, nil
	case "failed":
		return model.OutcomeFailed, nil
	default:
		return 0, fmt.Errorf("invalid outcome: %s (must be ok, scheduled, or failed)", s)
	}
}

// RunView writes every event of the log file matching filter to output.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
