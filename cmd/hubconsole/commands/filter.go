package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/log"
)

// FilterOptions specifies selection criteria as given on the command line.
type FilterOptions struct {
	Output     string
	RequestID  string
	Method     string
	DeviceID   string
	PathPrefix string
	TimeStart  string
	TimeEnd    string
	Category   string
	Service    string
	Outcome    string
}

// BuildFilter parses the options into a log filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		RequestID:  opts.RequestID,
		Method:     opts.Method,
		DeviceID:   opts.DeviceID,
		PathPrefix: opts.PathPrefix,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if opts.Service != "" {
		s, err := ParseServiceFlag(opts.Service)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Service = &s
	}

	if opts.Outcome != "" {
		o, err := ParseOutcomeFlag(opts.Outcome)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Outcome = &o
	}

	return filter, nil
}

// RunFilter writes the matching events of the log file to opts.Output and
// reports the count to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	if opts.Output == "" {
		return fmt.Errorf("output file required")
	}
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if dropped := logger.Dropped(); dropped > 0 {
		return fmt.Errorf("failed to write %d events", dropped)
	}
	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
