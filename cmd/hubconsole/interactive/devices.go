package interactive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/content"
	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

func (c *Console) cmdDevices(ctx context.Context, args []string) error {
	if ids, ok := removal(args, "rm"); ok {
		if len(ids) == 0 {
			return usage("devices rm <id...>")
		}
		deleted, err := c.hub.DeleteDevices(ctx, ids...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted %d device(s)\n", len(deleted))
		for _, id := range deleted {
			fmt.Fprintf(c.out, "  %s\n", id)
		}
		return nil
	}

	devices, err := c.hub.ListDevices(ctx, args...)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No devices")
		return nil
	}

	fmt.Fprintf(c.out, "\nDevices (%d):\n", len(devices))
	fmt.Fprintf(c.out, "%-38s %-24s %-8s %s\n", "ID", "NAME", "STATUS", "TWIN")
	fmt.Fprintln(c.out, "--------------------------------------------------------------------------------")
	for _, d := range devices {
		twin := d.Metadata.TwinSynchronization.State.String()
		if !d.Metadata.TwinEnabled {
			twin = model.TwinSyncDisabled.String()
		}
		fmt.Fprintf(c.out, "%-38s %-24s %-8s %s\n", d.ID, d.Name, d.Metadata.Connection.Status, twin)
	}
	return nil
}

func (c *Console) cmdTree(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("tree <device>")
	}
	nodes, err := c.hub.GetResourceTree(ctx, args[0])
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Fprintln(c.out, "No resources")
		return nil
	}
	fmt.Fprint(c.out, c.formatter.Format(nodes))
	fmt.Fprintf(c.out, "%d resources\n", len(restree.Flatten(nodes)))
	return nil
}

func (c *Console) cmdGet(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("get <device> <href> [live]")
	}
	twin := true
	if len(args) == 3 {
		if !strings.EqualFold(args[2], "live") {
			return usage("get <device> <href> [live]")
		}
		twin = false
	}

	res, err := c.hub.GetResource(ctx, args[0], args[1], twin)
	if err != nil {
		return err
	}
	c.printResource(res)
	return nil
}

func (c *Console) printResource(res *model.Resource) {
	fmt.Fprintf(c.out, "%s\n", res.ResourceID)
	if len(res.Types) > 0 {
		fmt.Fprintf(c.out, "  Types: %s\n", strings.Join(res.Types, ", "))
	}
	if res.ContentType != "" {
		fmt.Fprintf(c.out, "  Content-Type: %s\n", res.ContentType)
	}
	if res.Content != nil {
		fmt.Fprintln(c.out, content.Pretty(res.Content))
	}
}

func (c *Console) cmdUpdate(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("update <device> <href> <json> [ttl]")
	}
	value, t, err := c.commandInput(args[2], args[3:])
	if err != nil {
		return err
	}
	res, err := c.hub.UpdateResource(ctx, args[0], args[1], value, t)
	return c.commandResult("OK", args[0], args[1], t, res, err)
}

func (c *Console) cmdCreate(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("create <device> <collection-href> <json> [ttl]")
	}
	value, t, err := c.commandInput(args[2], args[3:])
	if err != nil {
		return err
	}
	res, err := c.hub.CreateResource(ctx, args[0], args[1], value, t)
	return c.commandResult("CREATED", args[0], args[1], t, res, err)
}

func (c *Console) cmdDelete(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("delete <device> <href> [ttl]")
	}
	t, err := c.commandTTL(args[2:])
	if err != nil {
		return err
	}
	res, err := c.hub.DeleteResource(ctx, args[0], args[1], t)
	return c.commandResult("DELETED", args[0], args[1], t, res, err)
}

// commandInput parses the JSON value and optional ttl of a resource command.
func (c *Console) commandInput(raw string, rest []string) (any, ttl.TTL, error) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON value: %w", err)
	}
	t, err := c.commandTTL(rest)
	return value, t, err
}

func (c *Console) commandTTL(rest []string) (ttl.TTL, error) {
	if len(rest) == 0 {
		return c.defaultTTL, nil
	}
	return ttl.Parse(rest[0])
}

// commandResult reports a resource command. A scheduled command is tracked
// until it resolves or its ttl runs out.
func (c *Console) commandResult(done, deviceID, href string, t ttl.TTL, res *model.Resource, err error) error {
	switch hub.Classify(err) {
	case model.OutcomeOK:
		fmt.Fprintf(c.out, "%s %s%s\n", done, deviceID, href)
		if res != nil && res.Content != nil {
			fmt.Fprintln(c.out, content.Pretty(res.Content))
		}
		return nil
	case model.OutcomeScheduled:
		correlationID := hub.CorrelationID(err)
		if correlationID != "" {
			if terr := c.tracker.Track(deviceID, correlationID, href, t); terr != nil {
				return terr
			}
		}
		c.logger.Debug("command scheduled", "device", deviceID, "href", href, "error", err)
		if t.Infinite() {
			fmt.Fprintf(c.out, "SCHEDULED %s%s (pending until the device is reachable) [%s]\n", deviceID, href, shortID(correlationID))
		} else {
			fmt.Fprintf(c.out, "SCHEDULED %s%s (expires in %s) [%s]\n", deviceID, href, t, shortID(correlationID))
		}
		return nil
	default:
		return err
	}
}

func (c *Console) cmdTwin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("twin <device> on|off")
	}
	var enabled bool
	switch strings.ToLower(args[1]) {
	case "on", "enable", "true":
		enabled = true
	case "off", "disable", "false":
	default:
		return usage("twin <device> on|off")
	}

	if err := c.hub.SetTwinSynchronization(ctx, args[0], enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(c.out, "Twin synchronization %s for %s\n", state, args[0])
	return nil
}

func (c *Console) cmdPending(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("pending <device>")
	}
	deviceID := args[0]

	cmds, err := c.hub.ListPendingCommands(ctx, deviceID)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		fmt.Fprintln(c.out, "No pending commands")
	} else {
		fmt.Fprintf(c.out, "\nPending commands (%d):\n", len(cmds))
		fmt.Fprintf(c.out, "%-10s %-38s %-30s %s\n", "KIND", "CORRELATION", "HREF", "VALID UNTIL")
		for _, cmd := range cmds {
			fmt.Fprintf(c.out, "%-10s %-38s %-30s %s\n",
				cmd.Kind, cmd.CorrelationID, cmd.ResourceID.Href, formatTime(cmd.ValidUntil.Time()))
		}
	}

	// Local view of scheduled commands issued from this console
	if tracked := c.tracker.Device(deviceID); len(tracked) > 0 {
		fmt.Fprintf(c.out, "\nScheduled from this console (%d):\n", len(tracked))
		for _, s := range tracked {
			remaining := "never expires"
			if !s.TTL.Infinite() {
				remaining = fmt.Sprintf("%s left", s.Remaining().Round(time.Second))
			}
			fmt.Fprintf(c.out, "  [%s] %s %s\n", shortID(s.CorrelationID), s.Href, remaining)
		}
	}
	return nil
}

func (c *Console) cmdCancel(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("cancel <device> [correlation-id...]")
	}
	deviceID, ids := args[0], args[1:]

	cancelled, err := c.hub.CancelPendingCommands(ctx, deviceID, ids...)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.tracker.ResolveDevice(deviceID)
	}
	for _, id := range cancelled {
		_ = c.tracker.Resolve(deviceID, id)
	}
	fmt.Fprintf(c.out, "Cancelled %d commands\n", len(cancelled))
	return nil
}
