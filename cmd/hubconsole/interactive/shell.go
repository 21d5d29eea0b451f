package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("devices"),
	readline.PcItem("tree"),
	readline.PcItem("get"),
	readline.PcItem("update"),
	readline.PcItem("twin"),
	readline.PcItem("pending"),
	readline.PcItem("cancel"),
	readline.PcItem("tokens", readline.PcItem("all")),
	readline.PcItem("certs"),
	readline.PcItem("groups"),
	readline.PcItem("hubs"),
	readline.PcItem("records"),
	readline.PcItem("clients", readline.PcItem("add"), readline.PcItem("rm")),
	readline.PcItem("discover"),
	readline.PcItem("ttl"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// Shell runs a Console on an interactive terminal.
type Shell struct {
	console *Console
	rl      *readline.Instance
}

// NewShell creates the readline instance and points the console output at
// it.
func NewShell(console *Console, historyFile string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hub> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	console.SetOutput(rl.Stdout())
	return &Shell{console: console, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	fmt.Fprintln(s.rl.Stdout(), "Type 'help' for commands.")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		err = s.console.ExecuteLine(ctx, line)
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		default:
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		}
	}
}
