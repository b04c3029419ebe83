// Command induo is a terminal client for the InduoHouse listings backend.
//
// Usage:
//
//	induo search [filter flags]
//	induo browse [filter flags]
//	induo fav list|toggle ID|add ID|remove ID|clear|watch
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/induohouse/induoweb/internal/backend"
	"github.com/induohouse/induoweb/internal/config"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/logging"
)

const usage = `usage: induo [-q] <command> [args]

commands:
  search   run one search and print the page
  browse   read filter edits from stdin and search as they settle
  fav      list|toggle|add|remove|clear|watch favorites
`

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

func (a *app) listings() *listings.Client {
	return listings.NewClient(backend.New(a.cfg.BackendURL,
		backend.WithTimeout(a.cfg.BackendTimeout),
		backend.WithObserver(func(op, outcome string, elapsed time.Duration) {
			a.logger.Debug("backend call", "op", op, "outcome", outcome, "elapsed", elapsed)
		}),
	))
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("induo", flag.ContinueOnError)
	quiet := fs.Bool("q", false, "discard log output")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := config.Load()
	logger := logging.Discard()
	if !*quiet {
		l, cleanup, err := logging.New(cfg.LogLevel, "text", cfg.LogFile)
		if err != nil {
			log.Printf("failed to initialize logger: %v", err)
			return 1
		}
		defer cleanup()
		logger = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{cfg: cfg, logger: logger, in: os.Stdin, out: os.Stdout}
	cmd, args := fs.Arg(0), fs.Args()[1:]

	var err error
	switch cmd {
	case "search":
		err = a.search(ctx, args)
	case "browse":
		err = a.browse(ctx, args)
	case "fav":
		err = a.fav(ctx, args)
	default:
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "induo %s: %v\n", cmd, err)
		return 1
	}
	return 0
}
