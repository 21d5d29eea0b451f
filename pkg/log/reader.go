package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Filter selects events. Zero fields match every event.
type Filter struct {
	// RequestID matches exactly.
	RequestID string

	// Method matches case-insensitively.
	Method string

	// DeviceID matches exactly.
	DeviceID string

	// PathPrefix matches events whose path starts with it.
	PathPrefix string

	Category *Category
	Service  *Service
	Outcome  *model.Outcome

	// TimeStart matches events at or after it.
	TimeStart *time.Time

	// TimeEnd matches events before it.
	TimeEnd *time.Time
}

// Matches reports whether the event satisfies every criterion.
func (f *Filter) Matches(event Event) bool {
	if f.RequestID != "" && event.RequestID != f.RequestID {
		return false
	}
	if f.Method != "" && !strings.EqualFold(event.Method, f.Method) {
		return false
	}
	if f.DeviceID != "" && event.DeviceID != f.DeviceID {
		return false
	}
	if f.PathPrefix != "" && !strings.HasPrefix(event.Path, f.PathPrefix) {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Service != nil && event.Service != *f.Service {
		return false
	}
	if f.Outcome != nil && event.Outcome != *f.Outcome {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events from a log file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader reads every event of the file at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader reads the events of path that match filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.file.Close()
}
