// Package log records the exchanges between the console and the hub.
//
// Every REST call and every event stream transition can be captured as an
// Event. This is separate from operational logging (slog): the exchange log
// is a machine-readable trace for auditing what the console asked the hub
// to do and what the hub answered.
//
// # Basic Usage
//
//	// For development: log to the console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For auditing: write to a binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/hubconsole/api.hlog")
//
//	// Both
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files are a concatenation of CBOR-encoded events with integer keys
// (.hlog). The "hubconsole log" subcommands view, export and summarize
// them.
package log
