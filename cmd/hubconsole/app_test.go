package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubconsole/hubconsole-go/internal/config"
	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
hub:
  url: https://file.example.com
  token: file-token
  timeout: 5s
state:
  db: ":memory:"
log:
  level: warn
`)
	t.Setenv(config.EnvURL, "https://env.example.com")
	t.Setenv(config.EnvToken, "")

	var g globalFlags
	fs := newFlagSet("devices", "devices", "test")
	g.register(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--timeout", "30s", "extra"}))

	cfg, err := g.load(fs)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Hub.URL)
	assert.Equal(t, "file-token", cfg.Hub.Token)
	assert.Equal(t, 30*time.Second, cfg.Hub.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"extra"}, fs.Args())

	fs = newFlagSet("devices", "devices", "test")
	g = globalFlags{}
	g.register(fs)
	require.NoError(t, fs.Parse([]string{"-c", path, "--url", "https://flag.example.com"}))
	cfg, err = g.load(fs)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.Hub.URL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
hub:
  url: ftp://hub
log:
  level: loud
`)
	t.Setenv(config.EnvURL, "")

	var g globalFlags
	fs := newFlagSet("devices", "devices", "test")
	g.register(fs)
	require.NoError(t, fs.Parse([]string{"--config", path}))

	_, err := g.load(fs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrHubURL))
	assert.True(t, errors.Is(err, config.ErrLogLevel))
}

func TestFlagsStopAtFirstArgument(t *testing.T) {
	var g globalFlags
	fs := newFlagSet("update", "update", "test")
	g.register(fs)
	require.NoError(t, fs.Parse([]string{"dev-1", "/temp", "-5"}))
	assert.Equal(t, []string{"dev-1", "/temp", "-5"}, fs.Args())
}

func TestExpandedPreferenceRoundTrip(t *testing.T) {
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, loadExpanded(store, "dev-1"))

	saveExpanded(store, "dev-1", []string{"/light/", "/oic/"})
	assert.Equal(t, []string{"/light/", "/oic/"}, loadExpanded(store, "dev-1"))
	assert.Nil(t, loadExpanded(store, "dev-2"))

	saveExpanded(store, "dev-1", nil)
	_, ok, err := store.Preference(expandedKey("dev-1"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Nil(t, loadExpanded(nil, "dev-1"))
}

func TestFormatHubEvent(t *testing.T) {
	line := formatHubEvent(hub.Event{
		Type:     hub.EventResourceChanged,
		DeviceID: "dev-1",
		Href:     "/light/1",
		Content:  map[string]any{"state": true},
	})
	assert.Contains(t, line, "RESOURCE_CHANGED")
	assert.Contains(t, line, "dev-1/light/1")
	assert.True(t, strings.HasSuffix(line, `{"state":true}`), line)

	line = formatHubEvent(hub.Event{
		Type:  hub.EventDisconnected,
		Err:   errors.New("connection reset"),
		Retry: 2 * time.Second,
	})
	assert.Contains(t, line, `error="connection reset"`)
	assert.Contains(t, line, "retry=2s")

	line = formatHubEvent(hub.Event{
		Type:     hub.EventResourcePublished,
		DeviceID: "dev-1",
		Links:    []model.ResourceLink{{Href: "/a"}, {Href: "/b"}},
	})
	assert.True(t, strings.HasSuffix(line, " /a /b"), line)
}
