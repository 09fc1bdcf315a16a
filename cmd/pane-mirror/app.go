package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/pane-mirror/internal/clock"
	"github.com/joe/pane-mirror/internal/config"
	"github.com/joe/pane-mirror/internal/history"
	"github.com/joe/pane-mirror/internal/logging"
	"github.com/joe/pane-mirror/internal/mirror"
	"github.com/joe/pane-mirror/internal/remote"
	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui"
	"github.com/joe/pane-mirror/internal/tui/shared"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// eventBuffer is the plain renderer's event queue length.
const eventBuffer = 64

// app wires the mirror and transfer core for one command.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	history *history.Store
	service *mirror.Service
	engine  *transfer.Engine
	worker  *transfer.Worker
	in      io.Reader
	out     io.Writer
	// interactive selects the Bubble Tea view for batches.
	interactive bool
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger, in io.Reader, out io.Writer) *app {
	fsys := filesystem.NewRealFileSystem()
	timeProvider := clock.Real{}

	store := history.NewStore(fsys, cfg.HistoryFile, timeProvider)

	runner := remote.NewRunner(remote.ExecExecutor{}, timeProvider, logger.Component("remote"), remote.Config{
		SSHPath:        cfg.SSHPath,
		RsyncPath:      cfg.RsyncPath,
		ConnectTimeout: cfg.Timeout,
	})

	service := mirror.NewService(mirror.Options{
		FS:             fsys,
		Commands:       runner,
		Native:         &mirror.SFTPLister{Timeout: cfg.Timeout},
		Secrets:        store,
		Recorder:       store,
		CacheDir:       cfg.CacheDir,
		ConnectTimeout: cfg.Timeout,
		Clock:          timeProvider,
		Logger:         logger.Logger,
	})

	engine := transfer.NewEngine(transfer.Options{
		FS:        fsys,
		Remote:    runner,
		Resolver:  service.Resolver(),
		Refresher: service,
		Sizes:     service.Materializer(),
		Clock:     timeProvider,
		Logger:    logger.Logger,
	})

	return &app{
		cfg:         cfg,
		log:         logger.Component("cli"),
		history:     store,
		service:     service,
		engine:      engine,
		worker:      transfer.NewWorker(ctx, 1),
		in:          in,
		out:         out,
		interactive: isTerminal(in) && isTerminal(out),
	}
}

// Close stops the background worker after its queued jobs finish.
func (a *app) Close() {
	a.worker.Stop()
}

// Dispatch runs the selected command.
func (a *app) Dispatch(ctx context.Context) error {
	switch {
	case a.cfg.Connect != nil:
		return a.connect(ctx)
	case a.cfg.Refresh != nil:
		return a.refresh(ctx)
	case a.cfg.Resolve != nil:
		return a.resolve()
	case a.cfg.History != nil:
		return a.listHistory()
	}

	cmd, op, ok := a.cfg.Transfer()
	if !ok {
		return config.ErrNoCommand
	}

	return a.transfer(ctx, op, cmd)
}

func (a *app) connect(ctx context.Context) error {
	endpoint, basePath, err := a.cfg.Connect.Endpoint()
	if err != nil {
		return err //nolint:wrapcheck // already describes the target
	}

	var (
		conn     *mirror.Connection
		localDir string
	)

	err = a.worker.Do(func(ctx context.Context) error {
		var connectErr error

		conn, localDir, connectErr = a.service.Connect(ctx, endpoint, basePath)

		return connectErr
	})

	if conn != nil {
		fmt.Fprintf(a.out, "Connected to %s\nMirror root: %s\nBrowsing:    %s\n", conn.Endpoint, conn.Root, localDir)
	}

	return err //nolint:wrapcheck // taxonomy errors from the mirror service
}

func (a *app) refresh(ctx context.Context) error {
	dir, err := filepath.Abs(a.cfg.Refresh.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", a.cfg.Refresh.Dir, err)
	}

	err = a.worker.Do(func(ctx context.Context) error {
		return a.service.Refresh(ctx, dir)
	})
	if err != nil {
		return err //nolint:wrapcheck // taxonomy errors from the mirror service
	}

	fmt.Fprintf(a.out, "Refreshed %s\n", dir)

	return nil
}

func (a *app) resolve() error {
	localPath, err := filepath.Abs(a.cfg.Resolve.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", a.cfg.Resolve.Path, err)
	}

	resolver := a.service.Resolver()

	conn, err := resolver.Resolve(localPath)
	if err != nil {
		return err //nolint:wrapcheck // taxonomy errors from the resolver
	}

	fmt.Fprintf(a.out, "%s:%s\nMirror root: %s\n", conn.Endpoint, resolver.RemotePath(conn, localPath), conn.Root)

	return nil
}

func (a *app) listHistory() error {
	if a.cfg.History.Remove != "" {
		id, err := uuid.Parse(a.cfg.History.Remove)
		if err != nil {
			return fmt.Errorf("failed to parse connection ID %q: %w", a.cfg.History.Remove, err)
		}

		err = a.history.Remove(id)
		if err != nil {
			return err //nolint:wrapcheck // history errors name the store
		}

		fmt.Fprintf(a.out, "Forgot connection %s\n", id)

		return nil
	}

	records, err := a.history.Recent(a.cfg.History.Limit)
	if err != nil {
		return err //nolint:wrapcheck // history errors name the store
	}

	if len(records) == 0 {
		fmt.Fprintln(a.out, "No remembered connections")

		return nil
	}

	table := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(table, "ID\tCONNECTION\tPATH\tLAST USED")

	for _, record := range records {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\n",
			record.ID, record.Endpoint(), record.Path, record.LastUsed.Local().Format("2006-01-02 15:04"))
	}

	return table.Flush() //nolint:wrapcheck // writer error passed through
}

func (a *app) transfer(ctx context.Context, op transfer.Op, cmd *config.TransferCmd) error {
	sources, err := expandSources(cmd.Sources, cmd.Pattern)
	if err != nil {
		return err
	}

	dest, err := filepath.Abs(cmd.Dest)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", cmd.Dest, err)
	}

	batch := transfer.Batch{Op: op, Sources: sources, DestDir: dest}
	a.log.Debug().Str("op", op.String()).Int("items", len(sources)).Str("dest", dest).Msg("starting batch")

	if a.interactive && !cmd.Plain {
		return a.transferInteractive(batch, cmd.Policy)
	}

	return a.transferPlain(batch, cmd.Policy)
}

// batchOutcome carries Engine.Run's return values off the worker.
type batchOutcome struct {
	result *transfer.BatchResult
	err    error
}

// submitBatch runs batch on the worker and calls done, then delivers the outcome.
func (a *app) submitBatch(batch transfer.Batch, resolve transfer.CollisionResolver, done func()) (<-chan batchOutcome, error) {
	outcome := make(chan batchOutcome, 1)

	err := a.worker.Submit(func(ctx context.Context) {
		result, err := a.engine.Run(ctx, batch, resolve)
		done()
		outcome <- batchOutcome{result: result, err: err}
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // ErrWorkerStopped is descriptive
	}

	return outcome, nil
}

func (a *app) transferInteractive(batch transfer.Batch, policy config.CollisionPolicy) error {
	bridge := shared.NewEventBridge()
	a.engine.SetEventEmitter(bridge)

	outcome, err := a.submitBatch(batch, policy.Resolver(bridge.AskCollision), bridge.Close)
	if err != nil {
		bridge.Close()

		return err
	}

	model, viewErr := tui.Run(bridge, a.in, a.out)
	// The view may quit before the batch ends; keep consuming so the engine never blocks.
	bridge.Drain()

	finished := <-outcome

	if viewErr != nil || model.Result() == nil {
		fmt.Fprintln(a.out, transfer.Summary(finished.result))
	}

	return finished.err
}

func (a *app) transferPlain(batch transfer.Batch, policy config.CollisionPolicy) error {
	emitter := transfer.NewChannelEmitter(eventBuffer)
	a.engine.SetEventEmitter(emitter)

	outcome, err := a.submitBatch(batch, policy.Resolver(tui.PromptCollision(a.in, os.Stderr)), emitter.Close)
	if err != nil {
		emitter.Close()

		return err
	}

	_, _ = tui.NewPlainRenderer(a.out).Run(emitter.Events())

	return (<-outcome).err
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)

	return ok && term.IsTerminal(int(file.Fd()))
}
