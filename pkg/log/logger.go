package log

// Logger receives exchange events. Pass nil or NoopLogger to disable it.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent use
	// and should not block the caller.
	Log(event Event)
}

// NoopLogger discards all events. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

var _ Logger = NoopLogger{}
