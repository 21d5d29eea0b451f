// Command hubconsole-web serves the console views of a device-management
// hub as a JSON API.
//
// It offers:
//   - device list, resource tree and resource content of the hub
//   - remote client instance registration, kept in SQLite
//   - time-to-live conversion for command input
//
// Usage:
//
//	hubconsole-web [flags]
//
// Flags:
//
//	--port int           HTTP server port (default 8080)
//	--config string      Configuration file
//	--url string         Hub gateway URL
//	--token string       Hub API token
//	--db string          SQLite database path (default from state.db)
//	--log-level string   Log level: debug, info, warn, error
//	--advertise          Announce the server over mDNS as a remote client instance
//	--name string        Announced instance name
//
// Examples:
//
//	# Serve the hub of the configuration file
//	hubconsole-web
//
//	# Serve another hub on a custom port with an in-memory database
//	hubconsole-web --port 9000 --url https://hub.example.com --db :memory:
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hubconsole/hubconsole-go/internal/config"
	"github.com/hubconsole/hubconsole-go/pkg/discovery"
	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	port         = pflag.Int("port", 8080, "HTTP server port")
	configPath   = pflag.StringP("config", "c", "", "Configuration file")
	hubURL       = pflag.String("url", "", "Hub gateway URL")
	hubToken     = pflag.String("token", "", "Hub API token")
	dbPath       = pflag.String("db", "", "SQLite database path")
	logLevel     = pflag.String("log-level", "", "Log level: debug, info, warn, error")
	exchangeLog  = pflag.String("exchange-log", "", "Record hub calls to this file")
	advertise    = pflag.Bool("advertise", false, "Announce the server over mDNS as a remote client instance")
	instanceName = pflag.String("name", "", "Announced instance name")
	showVersion  = pflag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("hubconsole-web %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.State.DB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.State.DB), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	store, err := persistence.Open(cfg.State.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
		return 1
	}

	loggers := []log.Logger{log.NewSlogAdapter(logger)}
	if cfg.Log.ExchangeFile != "" {
		fl, err := log.NewFileLogger(cfg.Log.ExchangeFile)
		if err != nil {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}

	client, err := hub.New(hub.Config{
		BaseURL:            cfg.Hub.URL,
		ProvisioningURL:    cfg.Hub.ProvisioningURL,
		Token:              cfg.Hub.Token,
		Timeout:            cfg.Hub.Timeout,
		InsecureSkipVerify: cfg.Hub.InsecureSkipVerify,
		Logger:             log.NewMultiLogger(loggers...),
		UserAgent:          "hubconsole-web/" + Version,
	})
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: failed to create hub client: %v\n", err)
		return 1
	}

	srv := NewServer(ServerConfig{
		Port:    *port,
		Version: Version,
		HubURL:  client.BaseURL(),
		Timeout: cfg.Hub.Timeout,
		Name:    *instanceName,
	}, client, store, logger)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *advertise {
		if err := srv.Announce(ctx, discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})); err != nil {
			logger.Warn("mDNS announcement failed", "error", err)
		}
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting hubconsole-web", "addr", fmt.Sprintf("http://localhost:%d", *port))
	logger.Info("hub", "url", client.BaseURL())
	logger.Info("database", "path", cfg.State.DB)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		return 1
	}

	return 0
}

// loadConfig reads the configuration file, then the environment, then the
// flags that were set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if pflag.CommandLine.Changed("url") {
		cfg.Hub.URL = *hubURL
	}
	if pflag.CommandLine.Changed("token") {
		cfg.Hub.Token = *hubToken
	}
	if pflag.CommandLine.Changed("db") {
		cfg.State.DB = *dbPath
	}
	if pflag.CommandLine.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if pflag.CommandLine.Changed("exchange-log") {
		cfg.Log.ExchangeFile = *exchangeLog
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}
