package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByService   map[log.Service]int
	RequestsByOutcome map[model.Outcome]int
	Devices           map[string]*DeviceStats
	Errors            int
	TotalDuration     time.Duration
	SlowestRequest    time.Duration
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceStats holds statistics for the calls scoped to one device.
type DeviceStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Requests  int
	Scheduled int
	Failed    int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByService:   make(map[log.Service]int),
		RequestsByOutcome: make(map[model.Outcome]int),
		Devices:           make(map[string]*DeviceStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.EventsByService[event.Service]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Category == log.CategoryError || event.Error != "" {
			stats.Errors++
		}
		if event.Category != log.CategoryRequest {
			continue
		}

		stats.RequestsByOutcome[event.Outcome]++
		stats.TotalDuration += event.Duration
		if event.Duration > stats.SlowestRequest {
			stats.SlowestRequest = event.Duration
		}

		if event.DeviceID == "" {
			continue
		}
		dev, ok := stats.Devices[event.DeviceID]
		if !ok {
			dev = &DeviceStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Devices[event.DeviceID] = dev
		}
		dev.Requests++
		if event.Timestamp.After(dev.LastSeen) {
			dev.LastSeen = event.Timestamp
		}
		switch event.Outcome {
		case model.OutcomeScheduled:
			dev.Scheduled++
		case model.OutcomeFailed:
			dev.Failed++
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Hub API Exchange Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryRequest, log.CategoryNotification, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Service:")
	for _, svc := range []log.Service{log.ServiceGateway, log.ServiceTokens, log.ServiceCertificates, log.ServiceProvisioning, log.ServiceEvents} {
		if count := stats.EventsByService[svc]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", svc.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	requests := stats.EventsByCategory[log.CategoryRequest]
	if requests > 0 {
		fmt.Fprintln(w, "Requests by Outcome:")
		for _, o := range []model.Outcome{model.OutcomeOK, model.OutcomeScheduled, model.OutcomeFailed} {
			if count := stats.RequestsByOutcome[o]; count > 0 {
				fmt.Fprintf(w, "  %-14s %d\n", o.String()+":", count)
			}
		}
		avg := stats.TotalDuration / time.Duration(requests)
		fmt.Fprintf(w, "  Average:       %s\n", formatDuration(avg))
		fmt.Fprintf(w, "  Slowest:       %s\n", formatDuration(stats.SlowestRequest))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Devices: %d\n", len(stats.Devices))
	if len(stats.Devices) > 0 {
		ids := make([]string, 0, len(stats.Devices))
		for id := range stats.Devices {
			ids = append(ids, id)
		}
		// Busiest first, then by ID
		sort.Slice(ids, func(i, j int) bool {
			a, b := stats.Devices[ids[i]], stats.Devices[ids[j]]
			if a.Requests != b.Requests {
				return a.Requests > b.Requests
			}
			return ids[i] < ids[j]
		})

		fmt.Fprintln(w)
		for _, id := range ids {
			d := stats.Devices[id]
			fmt.Fprintf(w, "  [%s] %d requests, span %s\n", id, d.Requests, d.LastSeen.Sub(d.FirstSeen).Round(time.Millisecond))
			if d.Scheduled > 0 || d.Failed > 0 {
				fmt.Fprintf(w, "           Scheduled: %d  Failed: %d\n", d.Scheduled, d.Failed)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
