package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hubconsole/hubconsole-go/internal/config"
)

const configUsage = `hubconsole config - write or show the configuration

Usage:
  hubconsole config init [flags]   Write a new configuration file
  hubconsole config show [flags]   Print the effective configuration
`

func runConfig(args []string) error {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, configUsage)
		return errors.New("config subcommand required")
	}

	switch args[0] {
	case "init":
		return runConfigInit(args[1:])
	case "show":
		return runConfigShow(args[1:])
	case "-h", "--help", "help":
		fmt.Print(configUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, configUsage)
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

func runConfigInit(args []string) error {
	fs := newFlagSet("config init", "config init [flags]", "write a new configuration file")
	path := fs.StringP("config", "c", config.DefaultPath(), "Configuration file to write")
	url := fs.String("url", "", "Hub gateway URL")
	token := fs.String("token", "", "Hub API token")
	defaultTTL := fs.String("default-ttl", "", "Default command time-to-live, e.g. 10s")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s exists, use --force to overwrite", *path)
	}

	cfg := config.Default()
	cfg.Hub.URL = *url
	cfg.Hub.Token = *token
	if *defaultTTL != "" {
		cfg.Commands.DefaultTTL = *defaultTTL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	if err := cfg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *path)
	return nil
}

func runConfigShow(args []string) error {
	var g globalFlags
	fs := newFlagSet("config show", "config show [flags]", "print the effective configuration")
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := g.load(fs)
	if err != nil {
		return err
	}
	if cfg.Hub.Token != "" {
		cfg.Hub.Token = "<redacted>"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
