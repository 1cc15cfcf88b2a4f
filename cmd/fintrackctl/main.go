// Command fintrackctl manages a fintrack ledger directly on the configured
// store. The user last registered or logged in is the identity for every
// ledger command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// errReported means the failure was already printed as a JSON envelope.
var errReported = errors.New("reported")

// errNotLoggedIn is returned by ledger commands when no user is current.
var errNotLoggedIn = core.Fail(core.ErrUnauthorized, "Not logged in, run fintrackctl login first", nil)

type ctl struct {
	out    io.Writer
	errOut io.Writer
	asJSON bool
	app    *cli.App
}

func main() {
	cli.LoadEnvFile()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &ctl{out: stdout, errOut: stderr}
	defer c.close()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, "Error:", messageOf(err))
		}
		return 1
	}
	return 0
}

func (c *ctl) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fintrackctl",
		Short: "Manage a fintrack ledger from the command line",
		Long: `fintrackctl reads and writes the ledger on the store selected by
DATA_BACKEND. Register or log in first; later commands act as that user.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Print results as {success, message, data} envelopes")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.whoamiCmd(),
		c.logoutCmd(),
		c.txCmd(),
		c.budgetCmd(),
		c.summaryCmd(),
		c.activityCmd(),
	)
	return root
}

// open loads configuration and wires the ledger on the configured store.
func (c *ctl) open(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Keep stdout for results; only warnings and errors reach stderr.
	level := log.ParseLevel(cfg.LogLevel)
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    c.errOut,
	})

	app, err := cli.Bootstrap(ctx, cfg, logger, cli.Options{ConnectAMQP: true})
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *ctl) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		fmt.Fprintln(c.errOut, "Error: closing store:", err)
	}
	c.app = nil
}

// currentUser returns the id of the device's current user.
func (c *ctl) currentUser(ctx context.Context) (string, error) {
	u := c.app.Ledger.Users.CurrentUser(ctx)
	if u == nil {
		return "", errNotLoggedIn
	}
	return u.ID, nil
}

// emit prints data through text, or the result envelope with --json.
func emit[T any](c *ctl, data T, err error, text func(io.Writer, T)) error {
	if c.asJSON {
		return c.printEnvelope(core.ResultOf(data, err), err)
	}
	if err != nil {
		return err
	}
	text(c.out, data)
	return nil
}

// emitDone is emit for operations without data.
func (c *ctl) emitDone(message string, err error) error {
	if c.asJSON {
		res := core.Done(err)
		if err == nil {
			res.Message = message
		}
		return c.printEnvelope(res, err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, message)
	return nil
}

func (c *ctl) printEnvelope(v any, opErr error) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if opErr != nil {
		return errReported
	}
	return nil
}

// messageOf prefers the user-facing message of a ledger failure and falls
// back to the error text for flag and configuration errors.
func messageOf(err error) string {
	var f *core.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}
