// Command astrolabe prints astrological charts and streams animated chart
// frames to renderers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "astrolabe: %v\n", err)
		}
		os.Exit(1)
	}
}

const usage = `usage: astrolabe [-config file] [-env-file file] <command> [flags]

commands:
  chart [-at time] [-json]   chart for an instant (default now)
  natal [-json]              chart at the configured reference epoch
  serve                      animate charts and stream them to renderers
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("astrolabe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to a YAML config file")
	envFile := fs.String("env-file", ".env", "dotenv file to load when present")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	a, err := newApp(*configPath, *envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "chart":
		return a.chartCmd(rest, stdout, stderr)
	case "natal":
		return a.natalCmd(rest, stdout, stderr)
	case "serve":
		return a.serveCmd(ctx, rest, stderr)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
