// Command cli is the operator tool for the coin economy: it inspects
// wallets and reviews top-ups against the same database as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atollmatch/atollmatch/infra/initializer"
	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/fatih/color"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "error:", err) //nolint:errcheck
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) (err error) {
	if len(args) == 0 {
		usage(out)
		return nil
	}
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer func() {
		// let queued notifications drain before the bus closes
		if w, ok := deps.EventBus.(interface{ Wait() }); ok {
			w.Wait()
		}
		err = errors.Join(err, cleanup())
	}()

	return execute(context.Background(), app.New(deps), args, out)
}

func usage(out io.Writer) {
	bold := color.New(color.Bold)
	bold.Fprintln(out, "Usage: cli <command> [arguments]") //nolint:errcheck
	fmt.Fprintln(out, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-34s %s\n", c.usage, c.help)
	}
}
