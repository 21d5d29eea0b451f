// Package config loads the console configuration.
//
// Values come from, in increasing precedence: built-in defaults, the YAML
// file, the environment (HUBCONSOLE_URL, HUBCONSOLE_TOKEN) and command
// line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// Environment variables read by ApplyEnv.
const (
	EnvURL   = "HUBCONSOLE_URL"
	EnvToken = "HUBCONSOLE_TOKEN"

	// DefaultPassphraseEnv holds the vault passphrase unless configured
	// otherwise.
	DefaultPassphraseEnv = "HUBCONSOLE_PASSPHRASE"
)

// Validation errors.
var (
	ErrNoHubURL  = errors.New("hub.url is required")
	ErrHubURL    = errors.New("hub.url must be an absolute http(s) URL")
	ErrTimeout   = errors.New("hub.timeout must not be negative")
	ErrLogLevel  = errors.New("log.level must be debug, info, warn or error")
	ErrStatePath = errors.New("state.db is required")
)

// Config is the console configuration file.
type Config struct {
	Hub      HubConfig      `yaml:"hub"`
	State    StateConfig    `yaml:"state"`
	Log      LogConfig      `yaml:"log"`
	Commands CommandsConfig `yaml:"commands"`
}

// HubConfig selects the hub and how to talk to it.
type HubConfig struct {
	URL                string        `yaml:"url"`
	ProvisioningURL    string        `yaml:"provisioning_url,omitempty"`
	Token              string        `yaml:"token,omitempty"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

// StateConfig locates the local state database.
type StateConfig struct {
	DB            string `yaml:"db"`
	PassphraseEnv string `yaml:"passphrase_env"`
}

// LogConfig configures operational and exchange logging.
type LogConfig struct {
	Level        string `yaml:"level"`
	ExchangeFile string `yaml:"exchange_file,omitempty"`
}

// CommandsConfig holds defaults for device commands.
type CommandsConfig struct {
	// DefaultTTL is parsed with ttl.Parse, e.g. "10 s" or "∞".
	DefaultTTL string `yaml:"default_ttl"`
}

// Dir returns the configuration directory, $HOME/.config/hubconsole.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hubconsole"
	}
	return filepath.Join(home, ".config", "hubconsole")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hub: HubConfig{
			Timeout: 10 * time.Second,
		},
		State: StateConfig{
			DB:            filepath.Join(Dir(), "state.db"),
			PassphraseEnv: DefaultPassphraseEnv,
		},
		Log: LogConfig{
			Level: "info",
		},
		Commands: CommandsConfig{
			DefaultTTL: "0",
		},
	}
}

// Parse decodes YAML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration file at path. An empty path reads
// DefaultPath and tolerates its absence.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the hub address and token from the environment.
// A nil getenv uses os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvURL); v != "" {
		c.Hub.URL = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Hub.Token = v
	}
}

// Validate checks the configuration before any network call.
func (c *Config) Validate() error {
	var errs []error

	switch u, err := url.Parse(c.Hub.URL); {
	case strings.TrimSpace(c.Hub.URL) == "":
		errs = append(errs, ErrNoHubURL)
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errs = append(errs, fmt.Errorf("%w: %q", ErrHubURL, c.Hub.URL))
	}
	if c.Hub.Timeout < 0 {
		errs = append(errs, ErrTimeout)
	}
	if c.State.DB == "" {
		errs = append(errs, ErrStatePath)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DefaultTTL(); err != nil {
		errs = append(errs, fmt.Errorf("commands.default_ttl: %w", err))
	}
	return errors.Join(errs...)
}

// LogLevel returns the slog level of log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrLogLevel, c.Log.Level)
	}
}

// DefaultTTL returns commands.default_ttl.
func (c *Config) DefaultTTL() (ttl.TTL, error) {
	if c.Commands.DefaultTTL == "" {
		return 0, nil
	}
	return ttl.Parse(c.Commands.DefaultTTL)
}

// Passphrase returns the vault passphrase from the configured environment
// variable.
func (c *Config) Passphrase(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	name := c.State.PassphraseEnv
	if name == "" {
		name = DefaultPassphraseEnv
	}
	return getenv(name)
}

// Save writes the configuration to path, creating its directory. The file
// may hold a token, so it is only readable by the owner.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
