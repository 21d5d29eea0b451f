package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hubconsole/hubconsole-go/pkg/discovery"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

func (c *Console) cmdClients(args []string) error {
	if c.store == nil {
		return ErrNoStore
	}
	if len(args) == 0 {
		return c.listClients()
	}

	switch strings.ToLower(args[0]) {
	case "add":
		if len(args) < 3 || len(args) > 4 {
			return usage("clients add <name> <url> [psk|x509]")
		}
		client := &model.RemoteClient{Name: args[1], URL: args[2]}
		if len(args) == 4 {
			switch strings.ToLower(args[3]) {
			case "psk":
				client.AuthMode = model.AuthPreSharedKey
			case "x509":
				client.AuthMode = model.AuthX509
			default:
				return usage("clients add <name> <url> [psk|x509]")
			}
		}
		if err := c.store.AddClient(client); err != nil {
			if errors.Is(err, persistence.ErrDuplicateURL) {
				return fmt.Errorf("a client with URL %s is already registered", client.URL)
			}
			return err
		}
		fmt.Fprintf(c.out, "Added %s (%s)\n", client.Name, client.ID)
		return nil

	case "rm", "remove", "delete":
		if len(args) != 2 {
			return usage("clients rm <id>")
		}
		if err := c.store.DeleteClient(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Removed %s\n", args[1])
		return nil

	default:
		return usage("clients [add <name> <url> [psk|x509] | rm <id>]")
	}
}

func (c *Console) listClients() error {
	clients, err := c.store.ListClients()
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		fmt.Fprintln(c.out, "No remote client instances")
		return nil
	}

	fmt.Fprintf(c.out, "\nRemote clients (%d):\n", len(clients))
	fmt.Fprintf(c.out, "%-38s %-20s %-32s %s\n", "ID", "NAME", "URL", "STATUS")
	fmt.Fprintln(c.out, rule)
	for _, rc := range clients {
		fmt.Fprintf(c.out, "%-38s %-20s %-32s %s\n", rc.ID, rc.Name, rc.URL, rc.Status)
	}
	return nil
}

// cmdDiscover browses for client instances until the discover timeout.
func (c *Console) cmdDiscover(ctx context.Context, _ []string) error {
	if c.browser == nil {
		return errors.New("discovery is not available")
	}

	ctx, cancel := context.WithTimeout(ctx, c.discoverTimeout)
	defer cancel()

	added, removed, err := c.browser.Browse(ctx)
	if err != nil {
		return fmt.Errorf("browse failed: %w", err)
	}

	fmt.Fprintf(c.out, "Browsing for %s (%s)...\n", discovery.ServiceType, c.discoverTimeout)
	found := make(map[string]*discovery.ClientService)
	listed := make(map[string]bool)
	var order []string
	for added != nil {
		select {
		case svc, ok := <-added:
			if !ok {
				added = nil
				continue
			}
			if !listed[svc.InstanceName] {
				listed[svc.InstanceName] = true
				order = append(order, svc.InstanceName)
			}
			found[svc.InstanceName] = svc
		case svc, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			delete(found, svc.InstanceName)
		}
	}

	count := 0
	for _, name := range order {
		svc, ok := found[name]
		if !ok {
			continue
		}
		count++
		fmt.Fprintf(c.out, "  %-24s %-32s id=%s auth=%s\n", svc.InstanceName, svc.URL(), svc.ID, svc.AuthMode)
	}
	fmt.Fprintf(c.out, "Found %d client instances\n", count)
	return nil
}

func (c *Console) cmdTTL(args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintf(c.out, "Default command TTL: %s\n", c.defaultTTL)
		return nil
	case 1, 2:
		// "ttl 1.5 s" and "ttl 1.5s" are the same
		t, err := ttl.Parse(strings.Join(args, ""))
		if err != nil {
			return err
		}
		c.defaultTTL = t
		fmt.Fprintf(c.out, "Default command TTL: %s (timeToLive=%s)\n", t, t.Query())
		return nil
	default:
		return usage("ttl [value]")
	}
}
