// Command hubconsole administers a device-management hub from the terminal.
//
// Usage:
//
//	hubconsole <command> [flags] [args]
//
// Commands:
//
//	shell      Interactive console
//	browse     Browse the resource tree of a device
//	watch      Stream hub events of a device
//	devices    List or delete devices
//	tree       Print the resource tree of a device
//	get        Read a resource
//	update     Update a resource
//	create     Create a resource in a collection
//	delete     Delete a resource
//	twin       Enable or disable twin synchronization
//	pending    List pending commands of a device
//	cancel     Cancel pending commands
//	tokens     List or revoke API tokens
//	token      Create and save API tokens
//	certs      List or delete signed certificates
//	groups     List, add or delete enrollment groups
//	hubs       List, add or delete linked hubs
//	records    List or delete provisioning records
//	clients    Manage remote client instances
//	discover   Discover remote client instances on the network
//	config     Write or show the configuration
//	log        Read an API exchange log
//
// Examples:
//
//	# Write a configuration for a hub
//	hubconsole config init --url https://hub.example.com
//
//	# Show the resources of a device
//	hubconsole tree 0b4a7d2e-4c6e-4f77-8ad6-3c9b5ef0d2e1
//
//	# Switch a light on, giving up after ten seconds
//	hubconsole update 0b4a7d2e-4c6e-4f77-8ad6-3c9b5ef0d2e1 /light/1 '{"state":true}' 10s
//
//	# Show statistics of an exchange log
//	hubconsole log stats exchange.hlog
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

var version = "dev"

const usage = `hubconsole - device-management hub console

Usage:
  hubconsole <command> [flags] [args]

Commands:
  shell      Interactive console
  browse     Browse the resource tree of a device
  watch      Stream hub events of a device
  devices    List devices (rm <id...> deletes)
  tree       Print the resource tree of a device
  get        Read a resource (add "live" to bypass the twin)
  update     Update a resource: <device> <href> <json> [ttl]
  create     Create a resource: <device> <collection-href> <json> [ttl]
  delete     Delete a resource: <device> <href> [ttl]
  twin       Enable or disable twin synchronization: <device> on|off
  pending    List pending commands of a device
  cancel     Cancel pending commands: <device> [correlation-id...]
  tokens     List API tokens ("all" includes revoked ones, revoke <id...>)
  token      Create and save API tokens
  certs      List signed certificates (rm <id...> deletes)
  groups     List enrollment groups (add <name> <hub-id,...> <chain.pem> [psk], rm <id...>)
  hubs       List linked hubs (add <hub-id> <name> <gateway,...> [ca-address], rm <id...>)
  records    List provisioning records (rm <id...> deletes)
  clients    Manage remote client instances
  discover   Discover remote client instances on the network
  config     Write or show the configuration
  log        Read an API exchange log

Use "hubconsole <command> --help" for more information about a command.
`

// adminCommands run as a single console command.
var adminCommands = map[string]bool{
	"devices":  true,
	"tree":     true,
	"get":      true,
	"update":   true,
	"create":   true,
	"delete":   true,
	"twin":     true,
	"pending":  true,
	"cancel":   true,
	"tokens":   true,
	"certs":    true,
	"groups":   true,
	"hubs":     true,
	"records":  true,
	"clients":  true,
	"discover": true,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch {
	case cmd == "shell":
		err = runShell(args)
	case cmd == "browse":
		err = runBrowse(args)
	case cmd == "watch":
		err = runWatch(args)
	case cmd == "token":
		err = runToken(args)
	case cmd == "config":
		err = runConfig(args)
	case cmd == "log":
		err = runLog(args)
	case adminCommands[cmd]:
		err = runAdmin(cmd, args)
	case cmd == "-v" || cmd == "--version" || cmd == "version":
		fmt.Printf("hubconsole version %s\n", version)
	case cmd == "-h" || cmd == "-help" || cmd == "--help" || cmd == "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newFlagSet creates the flag set of a subcommand. Flags must precede
// positional arguments so JSON values starting with '-' stay arguments.
func newFlagSet(name, synopsis, description string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "hubconsole %s - %s\n\nUsage:\n  hubconsole %s\n\nFlags:\n",
			name, description, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// requireArgs fails with the flag set usage unless fs has at least n
// positional arguments.
func requireArgs(fs *pflag.FlagSet, n int, what string) error {
	if fs.NArg() >= n {
		return nil
	}
	fs.Usage()
	return fmt.Errorf("%s required", what)
}
