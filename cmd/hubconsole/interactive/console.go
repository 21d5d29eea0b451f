// Package interactive provides the hubconsole administration commands and
// the readline shell that runs them.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/discovery"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// Command errors.
var (
	// ErrQuit is returned by the quit command.
	ErrQuit = errors.New("quit")

	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrNoStore        = errors.New("no state database configured")
)

// Hub is the part of the hub client the console uses.
type Hub interface {
	ListDevices(ctx context.Context, ids ...string) ([]model.Device, error)
	GetResourceTree(ctx context.Context, deviceID string) ([]*restree.Node, error)
	GetResource(ctx context.Context, deviceID, href string, twin bool) (*model.Resource, error)
	UpdateResource(ctx context.Context, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error)
	CreateResource(ctx context.Context, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error)
	DeleteResource(ctx context.Context, deviceID, href string, t ttl.TTL) (*model.Resource, error)
	SetTwinSynchronization(ctx context.Context, deviceID string, enabled bool) error
	ListPendingCommands(ctx context.Context, deviceID string) ([]model.PendingCommand, error)
	CancelPendingCommands(ctx context.Context, deviceID string, correlationIDs ...string) ([]string, error)
	ListTokens(ctx context.Context, includeBlacklisted bool) ([]model.Token, error)
	ListSigningRecords(ctx context.Context, ids ...string) ([]model.SigningRecord, error)
	ListEnrollmentGroups(ctx context.Context, ids ...string) ([]model.EnrollmentGroup, error)
	ListLinkedHubs(ctx context.Context, ids ...string) ([]model.LinkedHub, error)
	ListProvisioningRecords(ctx context.Context, ids ...string) ([]model.ProvisioningRecord, error)

	CreateEnrollmentGroup(ctx context.Context, g model.EnrollmentGroup) (*model.EnrollmentGroup, error)
	CreateLinkedHub(ctx context.Context, h model.LinkedHub) (*model.LinkedHub, error)

	DeleteDevices(ctx context.Context, ids ...string) ([]string, error)
	BlacklistTokens(ctx context.Context, ids ...string) (int64, error)
	DeleteSigningRecords(ctx context.Context, ids ...string) (int64, error)
	DeleteEnrollmentGroups(ctx context.Context, ids ...string) (int64, error)
	DeleteLinkedHubs(ctx context.Context, ids ...string) (int64, error)
	DeleteProvisioningRecords(ctx context.Context, ids ...string) (int64, error)
}

// ClientStore persists remote client instances.
type ClientStore interface {
	AddClient(c *model.RemoteClient) error
	ListClients() ([]model.RemoteClient, error)
	DeleteClient(id string) error
}

// Config wires a Console.
type Config struct {
	Hub Hub

	// Store is optional; client commands fail without it.
	Store ClientStore

	// Browser is optional; discover fails without it.
	Browser discovery.Browser

	// Tracker follows scheduled commands. Nil creates one.
	Tracker *ttl.Tracker

	// DefaultTTL applies to updates given without a time-to-live.
	DefaultTTL ttl.TTL

	// DiscoverTimeout bounds the discover command.
	DiscoverTimeout time.Duration

	Output io.Writer
	Logger *slog.Logger
}

// Console executes administration commands against a hub.
type Console struct {
	hub             Hub
	store           ClientStore
	browser         discovery.Browser
	tracker         *ttl.Tracker
	formatter       *restree.Formatter
	defaultTTL      ttl.TTL
	discoverTimeout time.Duration
	out             io.Writer
	logger          *slog.Logger
}

// New creates a Console.
func New(cfg Config) *Console {
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = ttl.NewTracker()
	}
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := cfg.DiscoverTimeout
	if timeout <= 0 {
		timeout = discovery.BrowseTimeout
	}

	c := &Console{
		hub:             cfg.Hub,
		store:           cfg.Store,
		browser:         cfg.Browser,
		tracker:         tracker,
		formatter:       restree.NewFormatter(),
		defaultTTL:      cfg.DefaultTTL,
		discoverTimeout: timeout,
		out:             out,
		logger:          logger,
	}
	tracker.OnExpiry(c.handleExpiry)
	return c
}

// SetOutput redirects command output.
func (c *Console) SetOutput(w io.Writer) {
	c.out = w
}

// Tracker returns the scheduled command tracker.
func (c *Console) Tracker() *ttl.Tracker {
	return c.tracker
}

// DefaultTTL returns the time-to-live used for updates without one.
func (c *Console) DefaultTTL() ttl.TTL {
	return c.defaultTTL
}

func (c *Console) handleExpiry(cmd *ttl.Scheduled) {
	c.logger.Info("scheduled command expired",
		"device", cmd.DeviceID,
		"href", cmd.Href,
		"correlationId", cmd.CorrelationID)
	fmt.Fprintf(c.out, "Scheduled command %s on %s%s expired after %s\n",
		shortID(cmd.CorrelationID), cmd.DeviceID, cmd.Href, cmd.TTL)
}

// ExecuteLine splits line into words and executes it. Blank lines do
// nothing.
func (c *Console) ExecuteLine(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return c.Execute(ctx, args)
}

// Execute runs one command. args[0] is the command name.
func (c *Console) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", ErrUsage)
	}
	cmd := strings.ToLower(args[0])
	rest := args[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
		return nil
	case "devices", "d":
		return c.cmdDevices(ctx, rest)
	case "tree", "t":
		return c.cmdTree(ctx, rest)
	case "get", "g":
		return c.cmdGet(ctx, rest)
	case "update", "u":
		return c.cmdUpdate(ctx, rest)
	case "create":
		return c.cmdCreate(ctx, rest)
	case "delete":
		return c.cmdDelete(ctx, rest)
	case "twin":
		return c.cmdTwin(ctx, rest)
	case "pending", "p":
		return c.cmdPending(ctx, rest)
	case "cancel":
		return c.cmdCancel(ctx, rest)
	case "tokens":
		return c.cmdTokens(ctx, rest)
	case "certs":
		return c.cmdCerts(ctx, rest)
	case "groups":
		return c.cmdGroups(ctx, rest)
	case "hubs":
		return c.cmdHubs(ctx, rest)
	case "records":
		return c.cmdRecords(ctx, rest)
	case "clients":
		return c.cmdClients(rest)
	case "discover":
		return c.cmdDiscover(ctx, rest)
	case "ttl":
		return c.cmdTTL(rest)
	case "quit", "exit", "q":
		return ErrQuit
	default:
		return fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, cmd)
	}
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Commands:
  devices [rm <id...>]                List or delete devices
  tree <device>                       Show the resource tree
  get <device> <href> [live]          Read a resource (twin unless live)
  update <device> <href> <json> [ttl] Update a resource
  create <device> <href> <json> [ttl] Create a resource in a collection
  delete <device> <href> [ttl]        Delete a resource
  twin <device> on|off                Enable or disable twin synchronization
  pending <device>                    List pending commands
  cancel <device> [correlation-id...] Cancel pending commands
  tokens [all | revoke <id...>]       List or revoke API tokens
  certs [rm <id...>]                  List or delete signing records
  groups [add|rm ...]                 List, add or delete enrollment groups
                                        add <name> <hub-id,...> <chain.pem> [psk]
  hubs [add|rm ...]                   List, add or delete linked hubs
                                        add <hub-id> <name> <gateway,...> [ca-address]
  records [rm <id...>]                List or delete provisioning records
  clients [add <name> <url> | rm <id>] Manage remote client instances
  discover                            Browse the network for client instances
  ttl [value]                         Show or set the default command TTL
  help                                Show this help
  quit                                Exit`)
}

// splitArgs splits on whitespace. A quote opening a word groups until the
// matching quote, so JSON values can contain spaces; quotes inside a word
// are literal.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case !inWord && (r == '"' || r == '\''):
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", ErrUsage)
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
