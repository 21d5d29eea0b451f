package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hubconsole/hubconsole-go/cmd/hubconsole/interactive"
	"github.com/hubconsole/hubconsole-go/internal/config"
	"github.com/hubconsole/hubconsole-go/pkg/discovery"
	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
	"github.com/hubconsole/hubconsole-go/pkg/vault"
)

// globalFlags are accepted by every command that talks to the hub.
type globalFlags struct {
	configPath  string
	url         string
	token       string
	timeout     time.Duration
	insecure    bool
	logLevel    string
	exchangeLog string
	stateDB     string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configPath, "config", "c", "", "Configuration file (default "+config.DefaultPath()+")")
	fs.StringVar(&g.url, "url", "", "Hub gateway URL")
	fs.StringVar(&g.token, "token", "", "Hub API token")
	fs.DurationVar(&g.timeout, "timeout", 0, "Timeout of hub calls")
	fs.BoolVar(&g.insecure, "insecure", false, "Skip TLS certificate verification")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&g.exchangeLog, "exchange-log", "", "Record hub calls to this file")
	fs.StringVar(&g.stateDB, "state", "", "State database path")
}

// load reads the configuration and applies the environment, then the
// flags that were set.
func (g *globalFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if fs.Changed("url") {
		cfg.Hub.URL = g.url
	}
	if fs.Changed("token") {
		cfg.Hub.Token = g.token
	}
	if fs.Changed("timeout") {
		cfg.Hub.Timeout = g.timeout
	}
	if fs.Changed("insecure") {
		cfg.Hub.InsecureSkipVerify = g.insecure
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if fs.Changed("exchange-log") {
		cfg.Log.ExchangeFile = g.exchangeLog
	}
	if fs.Changed("state") {
		cfg.State.DB = g.stateDB
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// logWriter lets the interactive shell take over log output once readline
// owns the terminal.
type logWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *logWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *logWriter) Set(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = w
}

// app holds what a command needs to talk to the hub.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	logOut  *logWriter
	hub     *hub.Client
	store   *persistence.Store
	closers []io.Closer
}

func newApp(cfg *config.Config) (*app, error) {
	level, _ := cfg.LogLevel()
	a := &app{cfg: cfg, logOut: &logWriter{w: os.Stderr}}
	a.logger = slog.New(slog.NewTextHandler(a.logOut, &slog.HandlerOptions{Level: level}))

	store, err := openStore(cfg.State.DB)
	if err != nil {
		a.logger.Warn("state database unavailable", "path", cfg.State.DB, "error", err)
	} else {
		a.store = store
		a.closers = append(a.closers, store)
	}

	loggers := []log.Logger{log.NewSlogAdapter(a.logger)}
	if cfg.Log.ExchangeFile != "" {
		fl, err := log.NewFileLogger(cfg.Log.ExchangeFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		loggers = append(loggers, fl)
		a.closers = append(a.closers, fl)
	}

	token := cfg.Hub.Token
	if token == "" {
		token = a.savedToken()
	}

	client, err := hub.New(hub.Config{
		BaseURL:            cfg.Hub.URL,
		ProvisioningURL:    cfg.Hub.ProvisioningURL,
		Token:              token,
		Timeout:            cfg.Hub.Timeout,
		InsecureSkipVerify: cfg.Hub.InsecureSkipVerify,
		Logger:             log.NewMultiLogger(loggers...),
		UserAgent:          "hubconsole/" + version,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.hub = client
	return a, nil
}

func openStore(path string) (*persistence.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	return persistence.Open(path)
}

// savedToken opens the newest unexpired token saved for the configured hub.
// It returns "" when there is none or the vault stays locked.
func (a *app) savedToken() string {
	if a.store == nil {
		return ""
	}
	passphrase := a.cfg.Passphrase(os.Getenv)
	if passphrase == "" {
		return ""
	}
	tokens, err := a.store.ListTokens()
	if err != nil || len(tokens) == 0 {
		return ""
	}

	v, err := a.store.Unlock(passphrase, vault.DefaultParams)
	if err != nil {
		a.logger.Warn("cannot unlock token vault", "error", err)
		return ""
	}
	now := time.Now()
	for _, t := range tokens {
		if t.HubURL != a.cfg.Hub.URL || (t.ExpiresAt != nil && !t.ExpiresAt.After(now)) {
			continue
		}
		secret, err := a.store.OpenToken(v, t.ID)
		if err != nil {
			a.logger.Warn("cannot open saved token", "token", t.Name, "error", err)
			continue
		}
		a.logger.Debug("using saved token", "token", t.Name)
		return secret
	}
	return ""
}

// console creates a console writing to out.
func (a *app) console(out io.Writer) *interactive.Console {
	defaultTTL, _ := a.cfg.DefaultTTL()
	cfg := interactive.Config{
		Hub:        a.hub,
		Browser:    discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig()),
		DefaultTTL: defaultTTL,
		Output:     out,
		Logger:     a.logger,
	}
	// A nil *Store must not become a non-nil interface.
	if a.store != nil {
		cfg.Store = a.store
	}
	return interactive.New(cfg)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// setup parses the flags of a hub command and builds the app.
func setup(fs *pflag.FlagSet, g *globalFlags, args []string) (*app, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := g.load(fs)
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runAdmin runs one console command and exits.
func runAdmin(name string, args []string) error {
	var g globalFlags
	fs := newFlagSet(name, name+" [flags] [args]", "run the "+name+" command")
	g.register(fs)

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return a.console(os.Stdout).Execute(ctx, append([]string{name}, fs.Args()...))
}

func runShell(args []string) error {
	var g globalFlags
	fs := newFlagSet("shell", "shell [flags]", "interactive console")
	g.register(fs)
	history := fs.String("history", filepath.Join(config.Dir(), "history"), "History file")

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	console := a.console(os.Stdout)
	if err := os.MkdirAll(filepath.Dir(*history), 0o700); err != nil {
		a.logger.Warn("history disabled", "error", err)
		*history = ""
	}
	shell, err := interactive.NewShell(console, *history)
	if err != nil {
		return err
	}
	a.logOut.Set(shell.Stdout())
	defer a.logOut.Set(os.Stderr)

	fmt.Fprintf(shell.Stdout(), "Connected to %s\n", a.hub.BaseURL())
	shell.Run(ctx)
	return nil
}
