package transfer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/clock"
	"github.com/joe/pane-mirror/internal/mirror"
	"github.com/joe/pane-mirror/internal/remote"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
	"github.com/joe/pane-mirror/pkg/fileops"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// DirectoryEstimate stands in for a remote directory whose size query returned nothing.
const DirectoryEstimate = 1024 * 1024

const skipReason = "already exists in destination"

var errNoRemote = errors.New("remote operations not configured")

// RemoteOps is the subset of the command runner the engine drives.
type RemoteOps interface {
	TransferFile(ctx context.Context, endpoint remote.Endpoint, direction remote.Direction, localPath, remotePath string, onProgress remote.ProgressFunc) error
	TransferDirectory(ctx context.Context, endpoint remote.Endpoint, direction remote.Direction, localPath, remotePath string, onProgress remote.ProgressFunc) error
	RemoteToRemote(ctx context.Context, from remote.Endpoint, fromPath string, to remote.Endpoint, toPath string, isDir bool, sizeA int64, onProgress remote.ProgressFunc) error
	RemoteSize(ctx context.Context, endpoint remote.Endpoint, remotePath string) int64
	RemoteDirectorySize(ctx context.Context, endpoint remote.Endpoint, remotePath string) int64
	DeleteRemote(ctx context.Context, endpoint remote.Endpoint, remotePath string, isDir bool) bool
}

// ConnectionResolver maps mirror paths to their connection and remote path.
type ConnectionResolver interface {
	Resolve(localPath string) (*mirror.Connection, error)
	RemotePath(conn *mirror.Connection, localPath string) string
}

// PaneRefresher re-lists one mirror directory.
type PaneRefresher interface {
	Refresh(ctx context.Context, localDir string) error
}

// SizeLookup reads a mirror placeholder's recorded size.
type SizeLookup interface {
	SizeOf(path string) (int64, error)
}

// Options configures an Engine. Remote, Resolver, Refresher and Sizes are only needed for
// batches touching a mirror.
type Options struct {
	FS        filesystem.FileSystem
	Remote    RemoteOps
	Resolver  ConnectionResolver
	Refresher PaneRefresher
	Sizes     SizeLookup
	Clock     clock.TimeProvider
	Logger    zerolog.Logger
}

// Engine runs one batch at a time.
type Engine struct {
	opts     Options
	files    *fileops.FileOps
	enricher pmerrors.Enricher
	emitter  EventEmitter
	active   atomic.Bool
	log      zerolog.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	if opts.FS == nil {
		opts.FS = filesystem.NewRealFileSystem()
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	return &Engine{
		opts:     opts,
		files:    fileops.NewFileOps(opts.FS),
		enricher: pmerrors.NewEnricher(),
		log:      opts.Logger.With().Str("component", "transfer").Logger(),
	}
}

// SetEventEmitter sets the event emitter. The emitter is optional.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// plannedItem carries what the engine learned about one source before executing it.
type plannedItem struct {
	result     *ItemResult
	index      int
	name       string
	srcConn    *mirror.Connection
	srcRemote  string
	destConn   *mirror.Connection
	destRemote string
	collides   bool
	destIsDir  bool
}

// Run executes batch. Items run strictly sequentially and one item's failure never aborts the
// rest. resolve is asked once when any destination name already exists; a nil resolve skips
// colliding items. The returned error is a *PartialBatchError when any item failed,
// ErrBatchCancelled when a move was cancelled, or ErrBatchActive when another batch is running.
func (e *Engine) Run(ctx context.Context, batch Batch, resolve CollisionResolver) (*BatchResult, error) {
	if !e.active.CompareAndSwap(false, true) {
		return nil, ErrBatchActive
	}
	defer e.active.Store(false)

	if batch.DestDir == "" {
		return nil, ErrNoDestination
	}

	start := e.opts.Clock.Now()
	destDir := filepath.Clean(batch.DestDir)

	result := &BatchResult{Op: batch.Op, DestDir: destDir, Items: make([]ItemResult, len(batch.Sources))}
	items := e.plan(ctx, batch.Op, destDir, batch.Sources, result)

	for _, item := range items {
		if item.result.State != Failed {
			result.TotalBytes += item.result.Bytes
		}
	}

	e.log.Info().
		Str("op", batch.Op.String()).
		Int("items", len(items)).
		Int64("bytes", result.TotalBytes).
		Str("dest", destDir).
		Msg("batch started")
	e.emit(BatchStarted{Op: batch.Op, Items: len(items), TotalBytes: result.TotalBytes})

	decision := e.decide(batch.Op, items, resolve)
	if decision == CancelBatch {
		result.Cancelled = true

		for _, item := range items {
			if !item.result.State.Terminal() {
				item.result.Reason = "batch cancelled"
				e.transition(item, Skipped, nil)
			}
		}

		return e.finish(result, start, ErrBatchCancelled)
	}

	aggregator := NewAggregator(batch.Op, result.TotalBytes, len(items), e.opts.Clock, e.emitterOrNop())

	for _, item := range items {
		e.runItem(ctx, batch.Op, item, decision, aggregator)
	}

	result.CompletedBytes = aggregator.CompletedBytes()
	result.Resynced = e.resync(ctx, batch.Op, destDir, items)

	return e.finish(result, start, partialError(result))
}

// plan classifies and sizes every source and checks its destination for a collision.
func (e *Engine) plan(ctx context.Context, op Op, destDir string, sources []string, result *BatchResult) []*plannedItem {
	destIsMirror := mirror.IsMirrorPath(destDir)

	var (
		destConn    *mirror.Connection
		destDirPath string
		destErr     error
	)

	if destIsMirror {
		destConn, destErr = e.resolve(destDir)
		if destErr == nil {
			destDirPath = e.opts.Resolver.RemotePath(destConn, destDir)
		}
	}

	items := make([]*plannedItem, 0, len(sources))

	for i, source := range sources {
		source = filepath.Clean(source)
		name := filepath.Base(source)

		result.Items[i] = ItemResult{Source: source, Dest: filepath.Join(destDir, name), State: Pending}
		item := &plannedItem{result: &result.Items[i], index: i + 1, name: name}
		items = append(items, item)

		e.emit(ItemStateChanged{Index: item.index, Source: source, State: Pending})

		err := e.planItem(ctx, op, item, destIsMirror, destConn, destDirPath, destErr)
		if err != nil {
			e.fail(item, err)
		}
	}

	return items
}

func (e *Engine) planItem(ctx context.Context, op Op, item *plannedItem, destIsMirror bool, destConn *mirror.Connection, destDirPath string, destErr error) error {
	res := item.result

	info, err := e.opts.FS.Stat(res.Source)
	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	res.IsDir = info.IsDir()

	if res.Dest == res.Source {
		return fmt.Errorf("%s %s: %w", op, res.Source, ErrSameLocation)
	}

	if destErr != nil {
		return destErr
	}

	sourceIsMirror := mirror.IsMirrorPath(res.Source)
	if sourceIsMirror {
		item.srcConn, err = e.resolve(res.Source)
		if err != nil {
			return err
		}

		item.srcRemote = e.opts.Resolver.RemotePath(item.srcConn, res.Source)
		if item.srcRemote == "/" {
			return &pmerrors.PathResolutionError{Path: res.Source, Err: pmerrors.ErrMirrorRoot}
		}
	}

	if destIsMirror {
		item.destConn = destConn
		item.destRemote = path.Join(destDirPath, item.name)
		if item.destRemote == "/" {
			return &pmerrors.PathResolutionError{Path: res.Dest, Err: pmerrors.ErrMirrorRoot}
		}
	}

	res.Kind = Classify(sourceIsMirror, destIsMirror, res.IsDir)
	res.Bytes = e.estimate(ctx, item)

	e.transition(item, CollisionCheck, nil)

	existing, err := e.opts.FS.Stat(res.Dest)
	if err == nil {
		item.collides = true
		item.destIsDir = existing.IsDir()
	}

	return nil
}

// estimate sizes an item for progress scaling only.
func (e *Engine) estimate(ctx context.Context, item *plannedItem) int64 {
	res := item.result

	var size int64

	switch {
	case !res.Kind.SourceRemote():
		size, _, _ = e.files.Size(res.Source)
	case res.IsDir:
		size = e.opts.Remote.RemoteDirectorySize(ctx, item.srcConn.Endpoint, item.srcRemote)
		if size <= 0 {
			size = DirectoryEstimate
		}
	default:
		size = e.opts.Remote.RemoteSize(ctx, item.srcConn.Endpoint, item.srcRemote)
		if size <= 0 && e.opts.Sizes != nil {
			size, _ = e.opts.Sizes.SizeOf(res.Source)
		}
	}

	// Both legs of a remote-to-remote item move the bytes once each.
	if res.Kind == RemoteToRemoteFile || res.Kind == RemoteToRemoteDirectory {
		size *= 2
	}

	return size
}

// decide asks for the batch-wide collision decision. Copies cannot be cancelled.
func (e *Engine) decide(op Op, items []*plannedItem, resolve CollisionResolver) Decision {
	var names []string

	for _, item := range items {
		if item.collides && item.result.State != Failed {
			names = append(names, item.name)
		}
	}

	if len(names) == 0 {
		return OverwriteAll
	}

	decision := SkipAll
	if resolve != nil {
		decision = resolve(op, names)
	}

	if decision == CancelBatch && op != OpMove {
		decision = SkipAll
	}

	e.log.Info().Strs("names", names).Str("decision", decision.String()).Msg("destination collisions")

	return decision
}

func (e *Engine) runItem(ctx context.Context, op Op, item *plannedItem, decision Decision, aggregator *Aggregator) {
	res := item.result
	if res.State.Terminal() {
		return
	}

	if item.collides {
		if decision == SkipAll {
			res.Reason = skipReason
			e.transition(item, Skipped, nil)

			return
		}

		e.transition(item, Overwriting, nil)

		err := e.removeExisting(ctx, item)
		if err != nil {
			e.fail(item, err)

			return
		}
	}

	e.transition(item, InFlight, nil)
	aggregator.StartItem(item.index, item.name, res.Bytes)

	err := e.execute(ctx, item, aggregator)
	if err != nil {
		aggregator.FinishItem(false)
		e.fail(item, err)

		return
	}

	aggregator.FinishItem(true)
	e.transition(item, Succeeded, nil)

	if op != OpMove {
		return
	}

	e.transition(item, PendingDeletion, nil)

	err = e.deleteSource(ctx, item)
	if err != nil {
		res.Err = e.enricher.Enrich(err, res.Source)
		e.log.Warn().Err(err).Str("source", res.Source).Msg("copied but original not deleted")
		e.transition(item, DeleteFailed, res.Err)

		return
	}

	e.transition(item, Deleted, nil)
}

func (e *Engine) removeExisting(ctx context.Context, item *plannedItem) error {
	if !item.result.Kind.DestRemote() {
		return e.opts.FS.RemoveAll(item.result.Dest) //nolint:wrapcheck // FileSystem already names the path
	}

	if !e.opts.Remote.DeleteRemote(ctx, item.destConn.Endpoint, item.destRemote, item.destIsDir) {
		return fmt.Errorf("failed to remove existing %s on %s", item.destRemote, item.destConn.Endpoint) //nolint:err113 // remote rm reports only a status
	}

	return nil
}

// execute dispatches the item to its directional operation.
func (e *Engine) execute(ctx context.Context, item *plannedItem, aggregator *Aggregator) error {
	res := item.result
	report := func(bytes int64, speed float64) { aggregator.Update(bytes, speed) }
	local := func(bytes, _ int64, _ string) { aggregator.Update(bytes, 0) }

	var err error

	switch res.Kind {
	case LocalFile:
		_, err = e.files.CopyFile(res.Source, res.Dest, local)
	case LocalDirectory:
		_, err = e.files.CopyTree(res.Source, res.Dest, local)
	case UploadFile:
		err = e.opts.Remote.TransferFile(ctx, item.destConn.Endpoint, remote.Upload, res.Source, item.destRemote, report)
	case UploadDirectory:
		err = e.opts.Remote.TransferDirectory(ctx, item.destConn.Endpoint, remote.Upload, res.Source, item.destRemote, report)
	case DownloadFile:
		err = e.opts.Remote.TransferFile(ctx, item.srcConn.Endpoint, remote.Download, res.Dest, item.srcRemote, report)
	case DownloadDirectory:
		err = e.opts.Remote.TransferDirectory(ctx, item.srcConn.Endpoint, remote.Download, res.Dest, item.srcRemote, report)
	case RemoteToRemoteFile, RemoteToRemoteDirectory:
		err = e.opts.Remote.RemoteToRemote(ctx, item.srcConn.Endpoint, item.srcRemote, item.destConn.Endpoint, item.destRemote, res.IsDir, res.Bytes/2, report)
	}

	return err
}

func (e *Engine) deleteSource(ctx context.Context, item *plannedItem) error {
	res := item.result

	if !res.Kind.SourceRemote() {
		err := e.files.Remove(res.Source, res.IsDir)
		if err != nil {
			return fmt.Errorf("%w: %w", pmerrors.ErrDeleteFailed, err)
		}

		return nil
	}

	if !e.opts.Remote.DeleteRemote(ctx, item.srcConn.Endpoint, item.srcRemote, res.IsDir) {
		return fmt.Errorf("%w: %s on %s", pmerrors.ErrDeleteFailed, item.srcRemote, item.srcConn.Endpoint)
	}

	return nil
}

// resync re-lists every mirror directory the batch touched: the destination, plus the source
// parents of a move.
func (e *Engine) resync(ctx context.Context, op Op, destDir string, items []*plannedItem) []string {
	if e.opts.Refresher == nil {
		return nil
	}

	var dirs []string

	seen := make(map[string]bool)
	add := func(dir string) {
		if mirror.IsMirrorPath(dir) && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	add(destDir)

	if op == OpMove {
		for _, item := range items {
			if item.result.State == Deleted {
				add(filepath.Dir(item.result.Source))
			}
		}
	}

	for _, dir := range dirs {
		err := e.opts.Refresher.Refresh(ctx, dir)
		if err != nil {
			e.log.Warn().Err(err).Str("dir", dir).Msg("mirror re-listing failed")
		}

		e.emit(PaneResynced{Dir: dir, Err: err})
	}

	return dirs
}

func (e *Engine) finish(result *BatchResult, start time.Time, err error) (*BatchResult, error) {
	result.Duration = e.opts.Clock.Now().Sub(start)
	summary := Summary(result)

	e.log.Info().
		Str("op", result.Op.String()).
		Int("succeeded", result.SucceededCount()).
		Int("failed", result.Count(Failed)).
		Int("skipped", result.Count(Skipped)).
		Int("delete_failed", result.Count(DeleteFailed)).
		Dur("duration", result.Duration).
		Msg("batch finished")
	e.emit(BatchFinished{Result: result, Err: err, Summary: summary})

	return result, err
}

func (e *Engine) resolve(localPath string) (*mirror.Connection, error) {
	if e.opts.Resolver == nil || e.opts.Remote == nil {
		return nil, &pmerrors.PathResolutionError{Path: localPath, Err: errNoRemote}
	}

	return e.opts.Resolver.Resolve(localPath) //nolint:wrapcheck // already a PathResolutionError
}

func (e *Engine) fail(item *plannedItem, err error) {
	item.result.Err = e.enricher.Enrich(err, item.result.Source)
	e.log.Warn().Err(err).Str("source", item.result.Source).Msg("item failed")
	e.transition(item, Failed, item.result.Err)
}

func (e *Engine) transition(item *plannedItem, state ItemState, err error) {
	item.result.State = state
	e.emit(ItemStateChanged{Index: item.index, Source: item.result.Source, State: state, Err: err})
}

func (e *Engine) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func (e *Engine) emitterOrNop() EventEmitter {
	if e.emitter == nil {
		return nopEmitter{}
	}

	return e.emitter
}

func partialError(result *BatchResult) error {
	var failures []pmerrors.ItemFailure

	for _, item := range result.Items {
		if item.State == Failed {
			failures = append(failures, pmerrors.ItemFailure{Name: filepath.Base(item.Source), Err: item.Err})
		}
	}

	if len(failures) == 0 {
		return nil
	}

	return &pmerrors.PartialBatchError{Total: len(result.Items), Failures: failures}
}
