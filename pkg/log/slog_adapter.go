package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at debug level, or at warn
// level for failed exchanges.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter for logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("request_id", event.RequestID),
		slog.String("category", event.Category.String()),
		slog.String("service", event.Service.String()),
	}

	if event.Method != "" {
		attrs = append(attrs, slog.String("method", event.Method))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.CorrelationID != "" {
		attrs = append(attrs, slog.String("correlation_id", event.CorrelationID))
	}
	if event.Status != 0 {
		attrs = append(attrs, slog.Int("status", event.Status))
	}
	if event.Duration != 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Category == CategoryRequest {
		attrs = append(attrs, slog.String("outcome", event.Outcome.String()))
	}
	if event.Detail != "" {
		attrs = append(attrs, slog.String("detail", event.Detail))
	}

	level := slog.LevelDebug
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
		level = slog.LevelWarn
	}

	a.logger.LogAttrs(context.Background(), level, "hub", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
