package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/hubconsole/hubconsole-go/cmd/hubconsole/commands"
)

const logUsage = `hubconsole log - read an API exchange log

Exchange logs are written when log.exchange_file is configured or a hub
command runs with --exchange-log.

Usage:
  hubconsole log <command> [flags] <file.hlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file
`

func runLog(args []string) error {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, logUsage)
		return errors.New("log command required")
	}

	switch args[0] {
	case "view":
		return runLogView(args[1:])
	case "export":
		return runLogExport(args[1:])
	case "filter":
		return runLogFilter(args[1:])
	case "stats":
		return runLogStats(args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Print(logUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, logUsage)
		return fmt.Errorf("unknown log command: %s", args[0])
	}
}

func runLogView(args []string) error {
	fs := newFlagSet("log view", "log view [flags] <file.hlog>", "view log file in human-readable format")
	opts := registerFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, "log file path"); err != nil {
		return err
	}

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		return err
	}
	return commands.RunView(fs.Arg(0), filter, os.Stdout)
}

func runLogExport(args []string) error {
	fs := newFlagSet("log export", "log export [flags] <file.hlog>", "export log file to JSONL or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, "log file path"); err != nil {
		return err
	}

	return commands.RunExport(fs.Arg(0), *format, *output)
}

func runLogFilter(args []string) error {
	fs := newFlagSet("log filter", "log filter [flags] -o <out.hlog> <file.hlog>", "filter log file and write to new file")
	opts := registerFilterFlags(fs)
	fs.StringVarP(&opts.Output, "output", "o", "", "Output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, "log file path"); err != nil {
		return err
	}
	if opts.Output == "" {
		fs.Usage()
		return errors.New("output file (-o) required")
	}

	return commands.RunFilter(fs.Arg(0), *opts, os.Stdout)
}

func runLogStats(args []string) error {
	fs := newFlagSet("log stats", "log stats <file.hlog>", "show statistics about the log file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, "log file path"); err != nil {
		return err
	}

	return commands.RunStats(fs.Arg(0), os.Stdout)
}

func registerFilterFlags(fs *pflag.FlagSet) *commands.FilterOptions {
	var opts commands.FilterOptions
	fs.StringVar(&opts.RequestID, "request-id", "", "Filter by request ID")
	fs.StringVar(&opts.Method, "method", "", "Filter by HTTP method")
	fs.StringVar(&opts.DeviceID, "device-id", "", "Filter by device ID")
	fs.StringVar(&opts.PathPrefix, "path", "", "Filter by path prefix")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (request, notification, state, error)")
	fs.StringVar(&opts.Service, "service", "", "Filter by service (gateway, tokens, certificates, provisioning, events)")
	fs.StringVar(&opts.Outcome, "outcome", "", "Filter by outcome (ok, scheduled, failed)")
	return &opts
}
