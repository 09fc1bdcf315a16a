package transfer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/clock"
	"github.com/joe/pane-mirror/internal/mirror"
	"github.com/joe/pane-mirror/internal/remote"
	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

const mib = 1024 * 1024

// tb is the part of testing.TB that GinkgoT() also provides.
type tb interface {
	Helper()
	Fatal(args ...any)
	TempDir() string
}

var errTransfer = errors.New("rsync: connection unexpectedly closed")

type remoteCall struct {
	op        string
	endpoint  remote.Endpoint
	direction remote.Direction
	local     string
	remote    string
	toPath    string
	isDir     bool
	sizeA     int64
}

// fakeRemote scripts the runner: sizes by remote path, progress steps per transfer, failures
// by remote path. Each progress step advances the clock past the throttle interval.
type fakeRemote struct {
	mu           sync.Mutex
	clock        *clock.Fake
	calls        []remoteCall
	sizes        map[string]int64
	steps        []int64
	failTransfer map[string]error
	failDelete   map[string]bool
	deleted      []string
	onTransfer   func(call remoteCall)
}

func newFakeRemote(fake *clock.Fake) *fakeRemote {
	return &fakeRemote{
		clock:        fake,
		sizes:        map[string]int64{},
		failTransfer: map[string]error{},
		failDelete:   map[string]bool{},
	}
}

func (f *fakeRemote) record(call remoteCall) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.onTransfer
	f.mu.Unlock()

	if hook != nil && call.op != "delete" {
		hook(call)
	}
}

func (f *fakeRemote) run(remotePath string, onProgress remote.ProgressFunc) error {
	for _, step := range f.steps {
		f.clock.Advance(250 * time.Millisecond)
		onProgress(step, 2*mib)
	}

	return f.failTransfer[remotePath]
}

func (f *fakeRemote) TransferFile(_ context.Context, endpoint remote.Endpoint, direction remote.Direction, localPath, remotePath string, onProgress remote.ProgressFunc) error {
	f.record(remoteCall{op: "file", endpoint: endpoint, direction: direction, local: localPath, remote: remotePath})

	return f.run(remotePath, onProgress)
}

func (f *fakeRemote) TransferDirectory(_ context.Context, endpoint remote.Endpoint, direction remote.Direction, localPath, remotePath string, onProgress remote.ProgressFunc) error {
	f.record(remoteCall{op: "directory", endpoint: endpoint, direction: direction, local: localPath, remote: remotePath, isDir: true})

	return f.run(remotePath, onProgress)
}

func (f *fakeRemote) RemoteToRemote(_ context.Context, from remote.Endpoint, fromPath string, _ remote.Endpoint, toPath string, isDir bool, sizeA int64, onProgress remote.ProgressFunc) error {
	f.record(remoteCall{op: "r2r", endpoint: from, remote: fromPath, toPath: toPath, isDir: isDir, sizeA: sizeA})

	return f.run(fromPath, onProgress)
}

func (f *fakeRemote) RemoteSize(_ context.Context, _ remote.Endpoint, remotePath string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sizes[remotePath]
}

func (f *fakeRemote) RemoteDirectorySize(_ context.Context, _ remote.Endpoint, remotePath string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sizes[remotePath]
}

func (f *fakeRemote) DeleteRemote(_ context.Context, endpoint remote.Endpoint, remotePath string, isDir bool) bool {
	f.record(remoteCall{op: "delete", endpoint: endpoint, remote: remotePath, isDir: isDir})

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete[remotePath] {
		return false
	}

	f.deleted = append(f.deleted, remotePath)

	return true
}

func (f *fakeRemote) Calls() []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]remoteCall(nil), f.calls...)
}

// fakeRefresher records which mirror directories were re-listed.
type fakeRefresher struct {
	mu   sync.Mutex
	dirs []string
	err  error
}

func (f *fakeRefresher) Refresh(_ context.Context, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dirs = append(f.dirs, dir)

	return f.err
}

func (f *fakeRefresher) Dirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.dirs...)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []transfer.Event
}

func (r *recordingEmitter) Emit(event transfer.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recordingEmitter) Events() []transfer.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]transfer.Event(nil), r.events...)
}

func (r *recordingEmitter) Snapshots() []transfer.ProgressSnapshot {
	var snapshots []transfer.ProgressSnapshot

	for _, event := range r.Events() {
		if update, ok := event.(transfer.ProgressUpdated); ok {
			snapshots = append(snapshots, update.Snapshot)
		}
	}

	return snapshots
}

func (r *recordingEmitter) States(source string) []transfer.ItemState {
	var states []transfer.ItemState

	for _, event := range r.Events() {
		if changed, ok := event.(transfer.ItemStateChanged); ok && changed.Source == source {
			states = append(states, changed.State)
		}
	}

	return states
}

// harness wires an engine over real temp directories and a mirror root for joe@files:22.
type harness struct {
	engine    *transfer.Engine
	remote    *fakeRemote
	refresher *fakeRefresher
	events    *recordingEmitter
	clock     *clock.Fake
	local     string
	root      string
}

func newHarness(t tb) *harness {
	t.Helper()

	base := t.TempDir()
	fsys := filesystem.NewRealFileSystem()
	fake := clock.NewFake(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	root := filepath.Join(base, mirror.CacheDirName, "joe_files_22")
	mustMkdir(t, root)

	err := mirror.WriteSidecar(fsys, root, mirror.Sidecar{Host: "files", Port: 22, Username: "joe", Path: "/"})
	if err != nil {
		t.Fatal(err)
	}

	local := filepath.Join(base, "local")
	mustMkdir(t, local)

	h := &harness{
		remote:    newFakeRemote(fake),
		refresher: &fakeRefresher{},
		events:    &recordingEmitter{},
		clock:     fake,
		local:     local,
		root:      root,
	}

	h.engine = transfer.NewEngine(transfer.Options{
		FS:        fsys,
		Remote:    h.remote,
		Resolver:  mirror.NewResolver(fsys, nil, zerolog.Nop()),
		Refresher: h.refresher,
		Sizes:     mirror.NewMaterializer(fsys, zerolog.Nop()),
		Clock:     fake,
		Logger:    zerolog.Nop(),
	})
	h.engine.SetEventEmitter(h.events)

	return h
}

// mirrorDir creates a directory inside the mirror root and returns its local path.
func (h *harness) mirrorDir(t tb, rel string) string {
	t.Helper()

	dir := filepath.Join(h.root, rel)
	mustMkdir(t, dir)

	return dir
}

func mustMkdir(t tb, dir string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:noinlineerr // test setup
		t.Fatal(err)
	}
}

func writeFile(t tb, path, content string) {
	t.Helper()

	mustMkdir(t, filepath.Dir(path))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:noinlineerr // test setup
		t.Fatal(err)
	}
}

func readFile(t tb, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	return string(data)
}

func always(decision transfer.Decision) transfer.CollisionResolver {
	return func(transfer.Op, []string) transfer.Decision { return decision }
}
