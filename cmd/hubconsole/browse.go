package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hubconsole/hubconsole-go/internal/tui"
	"github.com/hubconsole/hubconsole-go/pkg/content"
	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
)

func runBrowse(args []string) error {
	var g globalFlags
	fs := newFlagSet("browse", "browse [flags] <device-id>", "browse the resource tree of a device")
	g.register(fs)

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireArgs(fs, 1, "device ID"); err != nil {
		return err
	}
	deviceID := fs.Arg(0)

	// The alternate screen owns the terminal; operational logs would
	// corrupt it.
	a.logOut.Set(io.Discard)

	ctx, cancel := signalContext()
	defer cancel()

	m := tui.InitialModel(ctx, a.hub, deviceID, loadExpanded(a.store, deviceID))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	a.logOut.Set(os.Stderr)
	if err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}

	if fm, ok := final.(tui.AppModel); ok {
		saveExpanded(a.store, deviceID, fm.Expanded())
	}
	return nil
}

func expandedKey(deviceID string) string {
	return persistence.PrefTreeExpanded + "." + deviceID
}

// loadExpanded returns the hrefs left open in the last session on the
// device.
func loadExpanded(store *persistence.Store, deviceID string) []string {
	if store == nil {
		return nil
	}
	value, ok, err := store.Preference(expandedKey(deviceID))
	if err != nil || !ok || value == "" {
		return nil
	}
	return strings.Split(value, "\n")
}

func saveExpanded(store *persistence.Store, deviceID string, hrefs []string) {
	if store == nil {
		return
	}
	key := expandedKey(deviceID)
	if len(hrefs) == 0 {
		_ = store.DeletePreference(key)
		return
	}
	_ = store.SetPreference(key, strings.Join(hrefs, "\n"))
}

func runWatch(args []string) error {
	var g globalFlags
	fs := newFlagSet("watch", "watch [flags] [device-id]", "stream hub events, of one device or all")
	g.register(fs)

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()
	deviceID := fs.Arg(0)

	ctx, cancel := signalContext()
	defer cancel()

	err = a.hub.Watch(ctx, deviceID, func(ev hub.Event) {
		fmt.Println(formatHubEvent(ev))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func formatHubEvent(ev hub.Event) string {
	ts := time.Now().Format("15:04:05.000")
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-20s", ts, ev.Type)
	if ev.DeviceID != "" {
		b.WriteString(" " + ev.DeviceID)
	}
	if ev.Href != "" {
		b.WriteString(ev.Href)
	}

	switch ev.Type {
	case hub.EventDisconnected:
		if ev.Err != nil {
			fmt.Fprintf(&b, " error=%q", ev.Err.Error())
		}
		if ev.Retry > 0 {
			fmt.Fprintf(&b, " retry=%s", ev.Retry)
		}
	case hub.EventResourcePublished:
		for _, l := range ev.Links {
			b.WriteString(" " + l.Href)
		}
	case hub.EventResourceUnpublished:
		b.WriteString(" " + strings.Join(ev.Hrefs, " "))
	case hub.EventResourceChanged:
		if data, err := json.Marshal(content.Normalize(ev.Content)); err == nil && ev.Content != nil {
			b.WriteString(" " + string(data))
		}
	}
	return b.String()
}
