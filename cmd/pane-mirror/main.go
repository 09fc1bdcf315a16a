// Package main is the entry point for the pane-mirror application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joe/pane-mirror/internal/config"
	"github.com/joe/pane-mirror/internal/logging"
	"github.com/joe/pane-mirror/internal/transfer"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	logger, err := logging.New(logging.Options{Verbose: cfg.Verbose, LogFile: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	defer func() {
		_ = logger.Close()
	}()

	ctx := context.Background()

	app := newApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	defer app.Close()

	err = app.Dispatch(ctx)
	if err != nil {
		printError(os.Stderr, err)

		return 1
	}

	return 0
}

// printError prints err and, for errors not already itemised by a batch summary, its
// suggestions.
func printError(out io.Writer, err error) {
	fmt.Fprintf(out, "Error: %v\n", err)

	var partial *pmerrors.PartialBatchError
	if errors.As(err, &partial) || errors.Is(err, transfer.ErrBatchCancelled) {
		return
	}

	if suggestions := pmerrors.FormatSuggestions(pmerrors.NewEnricher().Enrich(err, "")); suggestions != "" {
		fmt.Fprintln(out, suggestions)
	}
}
