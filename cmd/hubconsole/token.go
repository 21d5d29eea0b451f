package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
	"github.com/hubconsole/hubconsole-go/pkg/vault"
)

const tokenUsage = `hubconsole token - create and save API tokens

Usage:
  hubconsole token create [flags] <name>   Issue a token, optionally saving it
  hubconsole token revoke [flags] <id...>  Blacklist tokens on the hub
  hubconsole token saved [flags]           List tokens saved in the vault
  hubconsole token forget [flags] <id>     Remove a saved token

A saved token is used when no token is configured. The vault passphrase is
read from the environment variable named by state.passphrase_env.
`

var errNoPassphrase = errors.New("vault passphrase not set")

func runToken(args []string) error {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, tokenUsage)
		return errors.New("token subcommand required")
	}

	switch args[0] {
	case "create":
		return runTokenCreate(args[1:])
	case "revoke":
		return runTokenRevoke(args[1:])
	case "saved", "list":
		return runTokenSaved(args[1:])
	case "forget", "rm":
		return runTokenForget(args[1:])
	case "-h", "--help", "help":
		fmt.Print(tokenUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, tokenUsage)
		return fmt.Errorf("unknown token subcommand: %s", args[0])
	}
}

func runTokenCreate(args []string) error {
	var g globalFlags
	fs := newFlagSet("token create", "token create [flags] <name>", "issue an API token")
	g.register(fs)
	expires := fs.Duration("expires", 0, "Lifetime of the token (default: never expires)")
	clientID := fs.String("client-id", "", "OAuth client ID of the token server")
	clientSecret := fs.String("client-secret", "", "OAuth client secret")
	scope := fs.StringSlice("scope", nil, "Requested scopes")
	save := fs.Bool("save", false, "Save the token in the vault")

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireArgs(fs, 1, "token name"); err != nil {
		return err
	}
	name := fs.Arg(0)

	ctx, cancel := signalContext()
	defer cancel()

	req := hub.TokenRequest{
		Name:         name,
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		Scope:        *scope,
	}
	var expiresAt *time.Time
	if *expires > 0 {
		t := time.Now().Add(*expires).UTC()
		req.Expiration = t
		expiresAt = &t
	}

	created, err := a.hub.CreateToken(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(created.AccessToken)
	fmt.Fprintln(os.Stderr, "The token is shown only once.")

	if !*save {
		return nil
	}
	v, err := a.unlockVault()
	if err != nil {
		return err
	}
	saved := &persistence.SavedToken{Name: name, HubURL: a.cfg.Hub.URL, ExpiresAt: expiresAt}
	if err := a.store.SaveToken(v, saved, created.AccessToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved as %s\n", saved.ID)
	return nil
}

func runTokenRevoke(args []string) error {
	var g globalFlags
	fs := newFlagSet("token revoke", "token revoke [flags] <id...>", "blacklist API tokens")
	g.register(fs)

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireArgs(fs, 1, "token ID"); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	n, err := a.hub.BlacklistTokens(ctx, fs.Args()...)
	if err != nil {
		return err
	}
	fmt.Printf("Revoked %d tokens\n", n)
	return nil
}

func runTokenSaved(args []string) error {
	var g globalFlags
	fs := newFlagSet("token saved", "token saved [flags]", "list saved tokens")
	g.register(fs)

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.store == nil {
		return errors.New("no state database")
	}

	tokens, err := a.store.ListTokens()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Println("No saved tokens")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHUB\tCREATED\tEXPIRES")
	for _, t := range tokens {
		expires := "never"
		if t.ExpiresAt != nil {
			expires = t.ExpiresAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, t.HubURL, t.CreatedAt.Local().Format(time.DateTime), expires)
	}
	return tw.Flush()
}

func runTokenForget(args []string) error {
	var g globalFlags
	fs := newFlagSet("token forget", "token forget [flags] <id>", "remove a saved token")
	g.register(fs)

	a, err := setup(fs, &g, args)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := requireArgs(fs, 1, "token ID"); err != nil {
		return err
	}
	if a.store == nil {
		return errors.New("no state database")
	}

	if err := a.store.DeleteToken(fs.Arg(0)); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("no saved token %s", fs.Arg(0))
		}
		return err
	}
	fmt.Printf("Removed %s\n", fs.Arg(0))
	return nil
}

func (a *app) unlockVault() (*vault.Vault, error) {
	if a.store == nil {
		return nil, errors.New("no state database")
	}
	passphrase := a.cfg.Passphrase(os.Getenv)
	if passphrase == "" {
		return nil, fmt.Errorf("%w: set %s", errNoPassphrase, a.cfg.State.PassphraseEnv)
	}
	return a.store.Unlock(passphrase, vault.DefaultParams)
}
